// Package resilience provides the failure-handling patterns used around the
// match service's external calls.
//
//   - Timeout bounds the one-shot Redis probe at startup.
//   - Retry re-attempts transient analysis API failures with backoff.
//   - RateLimiter keeps analysis calls under the provider's request quota.
//   - Bulkhead caps concurrent analyses so a burst of cache misses cannot
//     exhaust the provider quota or the process.
//
// Executor composes them:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 5, Burst: 5, WaitOnLimit: true})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{RetryIf: resilience.IsRetryable})),
//	    resilience.WithTimeout(30*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return callProvider(ctx)
//	})
package resilience
