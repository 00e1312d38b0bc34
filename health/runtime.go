package health

import (
	"context"
	"fmt"
	"runtime"
)

// RuntimeCheckerConfig configures the runtime checker. Zero limits are not
// enforced.
type RuntimeCheckerConfig struct {
	// MaxHeapBytes marks the process degraded when the live heap exceeds it.
	MaxHeapBytes uint64

	// MaxGoroutines marks the process degraded when exceeded.
	MaxGoroutines int
}

// RuntimeChecker reports heap and goroutine usage of the process.
type RuntimeChecker struct {
	config RuntimeCheckerConfig
}

// NewRuntimeChecker creates a runtime checker.
func NewRuntimeChecker(config RuntimeCheckerConfig) *RuntimeChecker {
	return &RuntimeChecker{config: config}
}

// Name returns "runtime".
func (c *RuntimeChecker) Name() string { return "runtime" }

// Check never reports unhealthy; exceeding a limit is degraded.
func (c *RuntimeChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context done", err)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	goroutines := runtime.NumGoroutine()

	details := map[string]any{
		"heap_alloc_bytes": stats.HeapAlloc,
		"heap_objects":     stats.HeapObjects,
		"num_gc":           stats.NumGC,
		"goroutines":       goroutines,
	}

	if c.config.MaxHeapBytes > 0 && stats.HeapAlloc > c.config.MaxHeapBytes {
		return Degraded(fmt.Sprintf("heap %d bytes exceeds limit %d", stats.HeapAlloc, c.config.MaxHeapBytes)).
			WithDetails(details)
	}
	if c.config.MaxGoroutines > 0 && goroutines > c.config.MaxGoroutines {
		return Degraded(fmt.Sprintf("%d goroutines exceeds limit %d", goroutines, c.config.MaxGoroutines)).
			WithDetails(details)
	}
	return Healthy("runtime within limits").WithDetails(details)
}
