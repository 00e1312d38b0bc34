// Package cache provides a content-addressable result cache with a
// networked backend and a process-local fallback.
//
// Keys are derived from two independent inputs, a document and a query, so
// re-submitting the same pair returns the stored analysis instead of calling
// the downstream analyzer again.
//
// # Backends
//
// RedisBackend stores entries in Redis with native expiry. MemoryBackend is a
// mutex-guarded map that evicts expired entries lazily on read. Both satisfy
// Backend, so callers never see which one is in use.
//
// # Selection
//
// Select probes Redis once at startup. If the probe fails the process runs on
// a fresh MemoryBackend for the rest of its life:
//
//	sel, err := cache.Select(ctx, cache.SelectorConfig{
//	    Redis:  redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    Logger: logger,
//	})
//	rc := cache.NewResultCache(sel.Backend(), cache.NewMD5Keyer(), cache.DefaultPolicy())
//
// # Lookup
//
// ResultCache.LookupOrCompute never surfaces backend failures. A Get error is
// a miss, a Set error is logged, and a corrupt entry is recomputed.
package cache
