package resilience

import (
	"context"
	"time"
)

// Executor layers resilience patterns around an operation. From the outside
// in: rate limiter, bulkhead, retry, per-attempt timeout.
type Executor struct {
	rateLimiter *RateLimiter
	bulkhead    *Bulkhead
	retry       *Retry
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor. With no options Execute calls op directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRetry retries failed attempts.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithRateLimiter takes a token before the first attempt.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithBulkhead holds a slot for the whole call, retries included.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithTimeout bounds each attempt.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout}) }
}

type operation = func(context.Context) error

type layer interface {
	Execute(ctx context.Context, op operation) error
}

// Execute runs op through the configured layers.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	// innermost first
	var layers []layer
	if e.timeout != nil {
		layers = append(layers, e.timeout)
	}
	if e.retry != nil {
		layers = append(layers, e.retry)
	}
	if e.bulkhead != nil {
		layers = append(layers, e.bulkhead)
	}
	if e.rateLimiter != nil {
		layers = append(layers, e.rateLimiter)
	}

	run := op
	for _, l := range layers {
		inner := run
		run = func(ctx context.Context) error { return l.Execute(ctx, inner) }
	}
	return run(ctx)
}
