package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/matchcache/analysis"
	"github.com/jonwraymond/matchcache/observe"
)

// ComputeFunc produces a result on a cache miss. A returned error is passed
// through LookupOrCompute unchanged and nothing is stored.
type ComputeFunc func(ctx context.Context) (analysis.Result, error)

// ResultCache memoizes analysis results by document and query.
type ResultCache struct {
	backend Backend
	keyer   Keyer
	policy  Policy
	logger  observe.Logger
	metrics observe.CacheMetrics
	tracer  observe.Tracer
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithLogger sets the cache logger.
func WithLogger(l observe.Logger) Option {
	return func(c *ResultCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the cache metrics recorder.
func WithMetrics(m observe.CacheMetrics) Option {
	return func(c *ResultCache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracer sets the cache tracer.
func WithTracer(t observe.Tracer) Option {
	return func(c *ResultCache) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewResultCache creates a result cache over an already selected backend.
// A nil keyer defaults to NewMD5Keyer().
func NewResultCache(backend Backend, keyer Keyer, policy Policy, opts ...Option) *ResultCache {
	if keyer == nil {
		keyer = NewMD5Keyer()
	}
	c := &ResultCache{
		backend: backend,
		keyer:   keyer,
		policy:  policy,
		logger:  observe.NopLogger(),
		metrics: observe.NopCacheMetrics(),
		tracer:  observe.NopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(observe.F("backend", backend.Name()))
	return c
}

// Backend returns the backend the cache reads and writes.
func (c *ResultCache) Backend() Backend { return c.backend }

// Key returns the cache key for a document and query.
func (c *ResultCache) Key(document []byte, query string) string {
	return c.keyer.Key(document, query)
}

// LookupOrCompute returns the stored result for (document, query), or runs
// compute once and stores its result. Backend failures are never returned:
// a failed Get or an undecodable entry is a miss, and a failed Set is only
// logged. A ttl of zero uses the policy default.
func (c *ResultCache) LookupOrCompute(
	ctx context.Context,
	document []byte,
	query string,
	compute ComputeFunc,
	ttl time.Duration,
) (analysis.Result, error) {
	backend := c.backend.Name()
	key := c.keyer.Key(document, query)

	ctx, span := c.tracer.StartSpan(ctx, observe.SpanLookup,
		attribute.String("matchcache.backend", backend),
		attribute.String("matchcache.key", key),
	)

	res, err := c.lookupOrCompute(ctx, key, compute, ttl)
	c.tracer.EndSpan(span, err)
	return res, err
}

func (c *ResultCache) lookupOrCompute(ctx context.Context, key string, compute ComputeFunc, ttl time.Duration) (analysis.Result, error) {
	backend := c.backend.Name()

	if res, ok := c.lookup(ctx, key); ok {
		return res, nil
	}

	computeCtx, span := c.tracer.StartSpan(ctx, observe.SpanCompute)
	start := time.Now()
	res, err := compute(computeCtx)
	c.tracer.EndSpan(span, err)
	if err != nil {
		return analysis.Result{}, err
	}
	c.metrics.RecordCompute(ctx, backend, time.Since(start), res.IsError())

	c.store(ctx, key, res, ttl)
	return res, nil
}

func (c *ResultCache) lookup(ctx context.Context, key string) (analysis.Result, bool) {
	backend := c.backend.Name()

	data, found, err := c.backend.Get(ctx, key)
	if err != nil {
		c.metrics.RecordLookup(ctx, backend, observe.OutcomeError)
		c.logger.Warn(ctx, "cache get failed, treating as miss", observe.F("key", key), observe.Err(err))
		return analysis.Result{}, false
	}
	if !found {
		c.metrics.RecordLookup(ctx, backend, observe.OutcomeMiss)
		c.logger.Debug(ctx, "cache miss", observe.F("key", key))
		return analysis.Result{}, false
	}

	res, err := Decode(data)
	if err != nil {
		c.metrics.RecordLookup(ctx, backend, observe.OutcomeError)
		c.logger.Error(ctx, "cached entry is unreadable, recomputing", observe.F("key", key), observe.Err(err))
		return analysis.Result{}, false
	}

	c.metrics.RecordLookup(ctx, backend, observe.OutcomeHit)
	c.logger.Debug(ctx, "cache hit", observe.F("key", key))
	return res, true
}

func (c *ResultCache) store(ctx context.Context, key string, res analysis.Result, override time.Duration) {
	ttl, ok := c.policy.TTLFor(res, override)
	if !ok {
		c.logger.Debug(ctx, "result not cached", observe.F("key", key), observe.F("kind", string(res.Kind)))
		return
	}

	data, err := Encode(res)
	if err != nil {
		c.logger.Error(ctx, "encoding result for cache", observe.F("key", key), observe.Err(err))
		return
	}

	if err := c.backend.Set(ctx, key, data, ttl); err != nil {
		c.metrics.RecordStoreError(ctx, c.backend.Name())
		c.logger.Warn(ctx, "cache set failed", observe.F("key", key), observe.Err(err))
	}
}

// Invalidate deletes the entry stored under key.
func (c *ResultCache) Invalidate(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := c.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache: invalidate %q: %w", key, err)
	}
	return nil
}

// IsBackendError reports whether err came from a backend connectivity failure.
func IsBackendError(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
