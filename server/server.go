package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/matchcache/analysis"
	"github.com/jonwraymond/matchcache/cache"
	"github.com/jonwraymond/matchcache/extract"
	"github.com/jonwraymond/matchcache/health"
	"github.com/jonwraymond/matchcache/observe"
	"github.com/jonwraymond/matchcache/resilience"
)

// Config configures request handling.
type Config struct {
	// MaxUploadBytes bounds the request body of /analyze.
	// Default: 20 MiB
	MaxUploadBytes int64

	// MaxConcurrent bounds analyzer calls in flight. Excess requests get 503.
	// Default: 8
	MaxConcurrent int

	// CacheTTL overrides the cache policy default when positive.
	CacheTTL time.Duration
}

// Server handles analysis requests.
type Server struct {
	cfg      Config
	cache    *cache.ResultCache
	analyzer analysis.Analyzer
	pdf      extract.Extractor
	plain    extract.Extractor
	bulkhead *resilience.Bulkhead

	health     *health.Aggregator
	metrics    http.Handler
	middleware *observe.Middleware
	logger     observe.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMiddleware wraps every route with request tracing and logging.
func WithMiddleware(m *observe.Middleware) Option {
	return func(s *Server) {
		s.middleware = m
	}
}

// WithHealth serves the aggregator's checks on the health routes.
func WithHealth(agg *health.Aggregator) Option {
	return func(s *Server) {
		s.health = agg
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithExtractors replaces the PDF and plain-text extractors.
func WithExtractors(pdf, plain extract.Extractor) Option {
	return func(s *Server) {
		if pdf != nil {
			s.pdf = pdf
		}
		if plain != nil {
			s.plain = plain
		}
	}
}

// New creates a server over an already selected cache.
func New(rc *cache.ResultCache, analyzer analysis.Analyzer, cfg Config, opts ...Option) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}

	s := &Server{
		cfg:      cfg,
		cache:    rc,
		analyzer: analyzer,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: cfg.MaxConcurrent}),
		logger:   observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pdf == nil {
		s.pdf = extract.NewPDFExtractor(s.logger)
	}
	if s.plain == nil {
		s.plain = extract.NewPlainExtractor(s.logger)
	}
	if s.health == nil {
		s.health = health.NewAggregator()
	}
	return s
}

// Handler returns the routed handler with CORS, request IDs and, when
// configured, tracing middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("DELETE /cache/{key}", s.handleInvalidate)
	health.RegisterHandlers(mux, s.health)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	var h http.Handler = mux
	if s.middleware != nil {
		h = s.middleware.Wrap(h)
	}
	return cors(requestID(h))
}

// AnalyzerChecker reports degraded while every analysis slot is in use.
func (s *Server) AnalyzerChecker() health.Checker {
	return health.NewCheckerFunc("analyzer", func(context.Context) health.Result {
		m := s.bulkhead.Metrics()
		details := map[string]any{
			"active":         m.Active,
			"max_concurrent": m.MaxConcurrent,
			"rejected":       m.Rejected,
		}
		if m.Available <= 0 {
			return health.Degraded("all analysis slots busy").WithDetails(details)
		}
		return health.Healthy("accepting analyses").WithDetails(details)
	})
}

func (s *Server) extractorFor(contentType string) extract.Extractor {
	if strings.HasPrefix(strings.ToLower(contentType), "text/plain") {
		return s.plain
	}
	return s.pdf
}
