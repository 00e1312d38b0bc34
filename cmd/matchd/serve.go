package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/matchcache/analysis"
	"github.com/jonwraymond/matchcache/cache"
	"github.com/jonwraymond/matchcache/config"
	"github.com/jonwraymond/matchcache/health"
	"github.com/jonwraymond/matchcache/observe"
	"github.com/jonwraymond/matchcache/server"
)

type serveFlags struct {
	config string
	addr   string
}

func newServeCmd() *cobra.Command {
	var opts serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "Path to configuration file (default $"+config.EnvConfigPath+")")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}

func serve(ctx context.Context, opts serveFlags) (err error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if err := cfg.ResolveSecrets(ctx); err != nil {
		return err
	}

	cfg.Observe.Version = versionString()
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err = errors.Join(err, obs.Shutdown(shutdownCtx))
	}()

	logger := obs.Logger()
	tracer := observe.TracerFromObserver(obs)

	metrics, err := observe.CacheMetricsFromObserver(obs)
	if err != nil {
		return fmt.Errorf("init cache metrics: %w", err)
	}

	client := redis.NewClient(cfg.Redis.Options())
	sel := cache.Select(ctx, cache.SelectorConfig{
		Redis:        client,
		ProbeTimeout: cfg.Redis.ProbeTimeout,
		Logger:       logger,
	})
	if sel.State() == cache.StateNetworked {
		defer func() { _ = client.Close() }()
	}

	rc := cache.NewResultCache(sel.Backend(),
		cache.NewMD5Keyer(cache.WithPrefix(cfg.Cache.KeyPrefix)),
		cfg.Cache.Policy,
		cache.WithLogger(logger),
		cache.WithMetrics(metrics),
		cache.WithTracer(tracer),
	)

	analyzer, err := analysis.NewOpenAIAnalyzer(cfg.Analysis,
		analysis.WithLogger(logger),
		analysis.WithTracer(tracer),
	)
	if err != nil {
		return err
	}

	checks := health.NewAggregator()
	srvOpts := []server.Option{
		server.WithLogger(logger),
		server.WithMiddleware(observe.MiddlewareFromObserver(obs)),
		server.WithHealth(checks),
	}
	if cfg.Observe.Metrics.Enabled && cfg.Observe.Metrics.Exporter == "prometheus" {
		srvOpts = append(srvOpts, server.WithMetricsHandler(promhttp.Handler()))
	}
	srv := server.New(rc, analyzer, server.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		MaxConcurrent:  cfg.Analysis.MaxConcurrent,
	}, srvOpts...)

	checks.Register("cache", cache.NewBackendChecker(sel))
	checks.Register("runtime", health.NewRuntimeChecker(health.RuntimeCheckerConfig{
		MaxHeapBytes:  cfg.Health.MaxHeapBytes,
		MaxGoroutines: cfg.Health.MaxGoroutines,
	}))
	checks.Register("analyzer", srv.AnalyzerChecker())

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening",
			observe.F("addr", cfg.Server.Addr),
			observe.F("cache_state", sel.State().String()),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
