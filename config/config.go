package config

import (
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/matchcache/analysis"
	"github.com/jonwraymond/matchcache/cache"
	"github.com/jonwraymond/matchcache/observe"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Redis    RedisConfig     `yaml:"redis"`
	Cache    CacheConfig     `yaml:"cache"`
	Analysis analysis.Config `yaml:"analysis"`
	Observe  observe.Config  `yaml:"observe"`
	Secrets  SecretsConfig   `yaml:"secrets"`
	Health   HealthConfig    `yaml:"health"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxUploadBytes bounds the multipart body of /analyze.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// RedisConfig configures the networked cache store.
type RedisConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ProbeTimeout bounds the one-shot startup PING.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Options returns go-redis client options.
func (r RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:         r.Addr(),
		Password:     r.Password,
		DB:           r.DB,
		DialTimeout:  r.DialTimeout,
		ReadTimeout:  r.ReadTimeout,
		WriteTimeout: r.WriteTimeout,
	}
}

// CacheConfig configures keys and expiry.
type CacheConfig struct {
	// KeyPrefix namespaces keys as prefix:key. Empty keeps bare keys.
	KeyPrefix string `yaml:"key_prefix"`

	Policy cache.Policy `yaml:",inline"`
}

// SecretsConfig lists the secret providers available to secretref values.
type SecretsConfig struct {
	Providers []string `yaml:"providers"`
}

// HealthConfig configures process health limits.
type HealthConfig struct {
	MaxHeapBytes  uint64 `yaml:"max_heap_bytes"`
	MaxGoroutines int    `yaml:"max_goroutines"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  20 << 20,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			ProbeTimeout: cache.DefaultProbeTimeout,
		},
		Cache: CacheConfig{
			Policy: cache.DefaultPolicy(),
		},
		Analysis: analysis.Config{
			BaseURL:       analysis.DefaultBaseURL,
			Model:         analysis.DefaultModel,
			Timeout:       60 * time.Second,
			MaxAttempts:   3,
			MaxConcurrent: 8,
		},
		Observe: observe.Config{
			ServiceName: "matchd",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Secrets: SecretsConfig{
			Providers: []string{"env", "file"},
		},
	}
}
