// Package observe provides observability primitives for the match cache.
//
// It bundles a structured JSON logger, OpenTelemetry tracing and cache
// metrics behind small interfaces so the cache, analyzer and HTTP server can
// be instrumented without depending on a concrete exporter. Exporter setup is
// the only I/O performed here.
package observe
