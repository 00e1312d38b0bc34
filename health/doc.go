// Package health reports the health of the service's dependencies.
//
// A Checker reports one component as Healthy, Degraded, or Unhealthy. An
// Aggregator runs its registered checkers in parallel and folds the results
// into one status; the worst result wins.
//
//	agg := health.NewAggregator()
//	agg.Register("cache", cache.NewBackendChecker(sel))
//	agg.Register("runtime", health.NewRuntimeChecker(health.RuntimeCheckerConfig{}))
//	health.RegisterHandlers(mux, agg)
//
// Degraded components keep the readiness probe green: a process running on
// its local cache fallback still serves requests.
package health
