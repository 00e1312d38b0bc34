package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/matchcache/secret"
)

// Environment variables read by Load.
const (
	EnvConfigPath    = "MATCHCACHE_CONFIG"
	EnvAddr          = "MATCHCACHE_ADDR"
	EnvRedisHost     = "REDIS_HOST"
	EnvRedisPort     = "REDIS_PORT"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvAPIKey        = "DASHSCOPE_API_KEY"
)

// Error is a configuration failure tied to a file or a field.
type Error struct {
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "":
		return "config error in " + e.Path + ": " + e.Err.Error()
	case e.Field != "":
		return "config error for " + e.Field + ": " + e.Err.Error()
	default:
		return "config error: " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Load builds the configuration from defaults, the YAML file at path and the
// environment, then validates it. An empty path falls back to
// MATCHCACHE_CONFIG; if that is unset too, no file is read.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path.
		if err != nil {
			return nil, &Error{Path: path, Err: err}
		}
		if err := decode(data, cfg); err != nil {
			return nil, &Error{Path: path, Err: err}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode rejects unknown keys so typos surface at startup.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvRedisHost); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv(EnvRedisPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &Error{Field: EnvRedisPort, Err: err}
		}
		cfg.Redis.Port = port
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Analysis.APIKey = v
	}
	return nil
}

// ResolveSecrets replaces ${ENV} and secretref values in credential fields
// using the configured providers.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	resolver, err := secret.NewDefaultRegistry().NewResolverFromNames(c.Secrets.Providers...)
	if err != nil {
		return &Error{Field: "secrets.providers", Err: err}
	}
	defer func() { _ = resolver.Close() }()

	fields := []struct {
		name string
		ptr  *string
	}{
		{"analysis.api_key", &c.Analysis.APIKey},
		{"redis.password", &c.Redis.Password},
	}
	for _, f := range fields {
		if *f.ptr == "" {
			continue
		}
		v, err := resolver.ResolveValue(ctx, *f.ptr)
		if err != nil {
			return &Error{Field: f.name, Err: fmt.Errorf("resolve secret: %w", err)}
		}
		*f.ptr = v
	}
	return nil
}
