package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/matchcache/observe"
	"github.com/jonwraymond/matchcache/resilience"
)

// DefaultProbeTimeout bounds the startup PING.
const DefaultProbeTimeout = 2 * time.Second

// ErrNoRedisClient is the fallback reason when no client was configured.
var ErrNoRedisClient = errors.New("cache: no redis client configured")

// State is the outcome of backend selection.
type State int

const (
	// StateNetworked means the Redis backend answered the probe.
	StateNetworked State = iota
	// StateLocal means the process-local fallback is in use.
	StateLocal
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNetworked:
		return "networked"
	case StateLocal:
		return "local"
	default:
		return "unknown"
	}
}

// SelectorConfig configures Select.
type SelectorConfig struct {
	// Redis is the networked store to probe. Nil selects the local backend.
	Redis redis.UniversalClient

	// ProbeTimeout bounds the PING.
	// Default: 2 seconds
	ProbeTimeout time.Duration

	// MemoryOptions configure the fallback backend.
	MemoryOptions []MemoryOption

	Logger observe.Logger
}

// Selection is the result of a one-shot backend probe. It never changes after
// Select returns.
type Selection struct {
	backend Backend
	state   State
	reason  error
}

// Backend returns the selected backend.
func (s *Selection) Backend() Backend { return s.backend }

// State reports which backend was selected.
func (s *Selection) State() State { return s.state }

// Reason returns why the local fallback was chosen, or nil when networked.
func (s *Selection) Reason() error { return s.reason }

// Select probes Redis once and picks the backend for the life of the process.
// Any probe failure selects a fresh MemoryBackend and closes the Redis
// client; there is no later re-probe.
func Select(ctx context.Context, cfg SelectorConfig) *Selection {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	if cfg.Redis == nil {
		return local(ctx, logger, ErrNoRedisClient, cfg.MemoryOptions)
	}

	rb := NewRedisBackend(cfg.Redis)
	err := resilience.ExecuteWithTimeout(ctx, cfg.ProbeTimeout, rb.Ping)
	if err != nil {
		if cerr := rb.Close(); cerr != nil {
			logger.Debug(ctx, "closing unreachable redis client", observe.Err(cerr))
		}
		return local(ctx, logger, err, cfg.MemoryOptions)
	}

	logger.Info(ctx, "cache backend selected",
		observe.F("backend", rb.Name()),
		observe.F("state", StateNetworked.String()),
	)
	return &Selection{backend: rb, state: StateNetworked}
}

func local(ctx context.Context, logger observe.Logger, reason error, opts []MemoryOption) *Selection {
	mb := NewMemoryBackend(opts...)
	logger.Warn(ctx, "redis unavailable, using local cache",
		observe.F("backend", mb.Name()),
		observe.F("state", StateLocal.String()),
		observe.Err(reason),
	)
	return &Selection{backend: mb, state: StateLocal, reason: reason}
}
