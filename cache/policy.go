package cache

import (
	"time"

	"github.com/jonwraymond/matchcache/analysis"
)

// Policy configures how long results are kept.
type Policy struct {
	// DefaultTTL is used when LookupOrCompute is called without a TTL.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// MaxTTL caps every TTL. Zero means no cap.
	MaxTTL time.Duration `yaml:"max_ttl"`

	// ErrorTTL controls error-kind results: zero stores them like successes,
	// negative skips storing them, positive stores them for that long.
	ErrorTTL time.Duration `yaml:"error_ttl"`
}

// DefaultPolicy keeps results for one hour, errors included.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: time.Hour,
	}
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

// TTLFor returns the TTL for storing res and whether it should be stored.
func (p Policy) TTLFor(res analysis.Result, override time.Duration) (time.Duration, bool) {
	ttl := p.EffectiveTTL(override)
	if res.IsError() {
		switch {
		case p.ErrorTTL < 0:
			return 0, false
		case p.ErrorTTL > 0:
			ttl = p.EffectiveTTL(p.ErrorTTL)
		}
	}
	return ttl, ttl > 0
}
