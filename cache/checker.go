package cache

import (
	"context"
	"fmt"

	"github.com/jonwraymond/matchcache/health"
)

// pinger is implemented by backends that can check connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// BackendChecker reports the health of the selected cache backend.
//
// A reachable Redis backend is healthy, the local fallback is degraded, and a
// Redis backend that stopped answering is unhealthy.
type BackendChecker struct {
	sel *Selection
}

// NewBackendChecker creates a checker for sel.
func NewBackendChecker(sel *Selection) *BackendChecker {
	return &BackendChecker{sel: sel}
}

// Name returns "cache".
func (c *BackendChecker) Name() string { return "cache" }

// Check pings the networked backend or reports the fallback.
func (c *BackendChecker) Check(ctx context.Context) health.Result {
	backend := c.sel.Backend()
	details := map[string]any{
		"backend": backend.Name(),
		"state":   c.sel.State().String(),
	}

	if c.sel.State() == StateLocal {
		if mb, ok := backend.(*MemoryBackend); ok {
			details["entries"] = mb.Len()
		}
		msg := "using local fallback cache"
		if reason := c.sel.Reason(); reason != nil {
			msg = fmt.Sprintf("%s: %v", msg, reason)
		}
		return health.Degraded(msg).WithDetails(details)
	}

	if p, ok := backend.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return health.Unhealthy("redis not responding", err).WithDetails(details)
		}
	}
	return health.Healthy("redis reachable").WithDetails(details)
}

var _ health.Checker = (*BackendChecker)(nil)
