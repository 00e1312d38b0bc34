package config

import (
	"errors"
	"fmt"
)

// Sentinel validation errors.
var (
	ErrMissingAddr     = errors.New("config: server address is required")
	ErrInvalidPort     = errors.New("config: redis port out of range")
	ErrInvalidTTL      = errors.New("config: invalid cache ttl")
	ErrInvalidAnalysis = errors.New("config: invalid analysis settings")
)

// Validate checks field ranges. It does not require an API key, since only
// the serve command needs one.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return &Error{Field: "server.addr", Err: ErrMissingAddr}
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return &Error{Field: "redis.port", Err: fmt.Errorf("%w: %d", ErrInvalidPort, c.Redis.Port)}
	}
	if c.Cache.Policy.DefaultTTL <= 0 {
		return &Error{Field: "cache.default_ttl", Err: fmt.Errorf("%w: must be positive", ErrInvalidTTL)}
	}
	if c.Cache.Policy.MaxTTL < 0 {
		return &Error{Field: "cache.max_ttl", Err: fmt.Errorf("%w: must not be negative", ErrInvalidTTL)}
	}
	if c.Analysis.MaxConcurrent < 0 || c.Analysis.MaxAttempts < 0 || c.Analysis.RatePerSecond < 0 {
		return &Error{Field: "analysis", Err: ErrInvalidAnalysis}
	}
	if err := c.Observe.Validate(); err != nil {
		return &Error{Field: "observe", Err: err}
	}
	return nil
}
