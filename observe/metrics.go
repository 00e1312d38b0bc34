package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Lookup outcomes recorded by CacheMetrics.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// CacheMetrics records result cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type CacheMetrics interface {
	// RecordLookup records one backend lookup and its outcome.
	RecordLookup(ctx context.Context, backend, outcome string)

	// RecordStoreError records a failed backend write.
	RecordStoreError(ctx context.Context, backend string)

	// RecordCompute records one compute invocation after a miss.
	RecordCompute(ctx context.Context, backend string, duration time.Duration, errorResult bool)
}

type cacheMetrics struct {
	lookups     metric.Int64Counter
	storeErrors metric.Int64Counter
	computes    metric.Int64Counter
	computeHist metric.Float64Histogram
}

// NewCacheMetrics creates CacheMetrics instruments on the given meter.
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	lookups, err := meter.Int64Counter(
		"matchcache.lookup.total",
		metric.WithDescription("Result cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter(
		"matchcache.store.errors",
		metric.WithDescription("Failed result cache writes"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	computes, err := meter.Int64Counter(
		"matchcache.compute.total",
		metric.WithDescription("Analysis computations performed on cache miss"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	computeHist, err := meter.Float64Histogram(
		"matchcache.compute.duration_ms",
		metric.WithDescription("Analysis computation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &cacheMetrics{
		lookups:     lookups,
		storeErrors: storeErrors,
		computes:    computes,
		computeHist: computeHist,
	}, nil
}

// CacheMetricsFromObserver creates CacheMetrics on the observer's meter.
func CacheMetricsFromObserver(obs Observer) (CacheMetrics, error) {
	if obs == nil {
		return NopCacheMetrics(), nil
	}
	return NewCacheMetrics(obs.Meter())
}

func (m *cacheMetrics) RecordLookup(ctx context.Context, backend, outcome string) {
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	))
}

func (m *cacheMetrics) RecordStoreError(ctx context.Context, backend string) {
	m.storeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

func (m *cacheMetrics) RecordCompute(ctx context.Context, backend string, duration time.Duration, errorResult bool) {
	opt := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.Bool("error_result", errorResult),
	)
	m.computes.Add(ctx, 1, opt)
	m.computeHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// NopCacheMetrics returns CacheMetrics that record nothing.
func NopCacheMetrics() CacheMetrics {
	return nopCacheMetrics{}
}

type nopCacheMetrics struct{}

func (nopCacheMetrics) RecordLookup(context.Context, string, string) {}

func (nopCacheMetrics) RecordStoreError(context.Context, string) {}

func (nopCacheMetrics) RecordCompute(context.Context, string, time.Duration, bool) {}
