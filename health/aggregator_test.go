package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func staticChecker(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator()
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("Default timeout = %v, want 10s", agg.config.Timeout)
	}

	agg = NewAggregator(AggregatorConfig{Timeout: 5 * time.Second, MaxConcurrent: 2})
	if agg.config.Timeout != 5*time.Second || agg.config.MaxConcurrent != 2 {
		t.Errorf("config = %+v", agg.config)
	}
}

func TestAggregator_RegisterOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register("cache", staticChecker("cache", Healthy("ok")))
	agg.Register("runtime", staticChecker("runtime", Healthy("ok")))
	agg.Register("cache", staticChecker("cache", Degraded("fallback")))

	names := agg.CheckerNames()
	if len(names) != 2 || names[0] != "cache" || names[1] != "runtime" {
		t.Errorf("CheckerNames() = %v, want [cache runtime]", names)
	}

	result, err := agg.Check(context.Background(), "cache")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != StatusDegraded {
		t.Errorf("re-registered checker not used, Status = %v", result.Status)
	}
}

func TestAggregator_CheckNotFound(t *testing.T) {
	agg := NewAggregator()
	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check() error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register("a", staticChecker("a", Healthy("ok")))
	agg.Register("b", staticChecker("b", Degraded("slow")))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results["b"].Status != StatusDegraded {
		t.Errorf("results[b].Status = %v", results["b"].Status)
	}
	if results["a"].Duration <= 0 && results["a"].Timestamp.IsZero() {
		t.Error("aggregator should fill timing fields")
	}
}

func TestAggregator_CheckAllEmpty(t *testing.T) {
	results := NewAggregator().CheckAll(context.Background())
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestAggregator_CheckAllParallel(t *testing.T) {
	agg := NewAggregator()
	for _, name := range []string{"a", "b", "c"} {
		agg.Register(name, NewCheckerFunc(name, func(ctx context.Context) Result {
			time.Sleep(100 * time.Millisecond)
			return Healthy("ok")
		}))
	}

	start := time.Now()
	agg.CheckAll(context.Background())
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("CheckAll took %v, checks did not run in parallel", elapsed)
	}
}

func TestAggregator_MaxConcurrent(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{MaxConcurrent: 1})
	var running, peak atomic.Int32
	for _, name := range []string{"a", "b", "c"} {
		agg.Register(name, NewCheckerFunc(name, func(ctx context.Context) Result {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return Healthy("ok")
		}))
	}

	agg.CheckAll(context.Background())
	if peak.Load() != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak.Load())
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 50 * time.Millisecond})
	agg.Register("slow", NewCheckerFunc("slow", func(ctx context.Context) Result {
		time.Sleep(time.Second)
		return Healthy("too late")
	}))

	results := agg.CheckAll(context.Background())
	if results["slow"].Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", results["slow"].Status)
	}
	if !errors.Is(results["slow"].Error, ErrCheckTimeout) {
		t.Errorf("Error = %v, want ErrCheckTimeout", results["slow"].Error)
	}
}

func TestAggregator_OverallStatus(t *testing.T) {
	agg := NewAggregator()

	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"one degraded", map[string]Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := agg.OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregator_PanickingChecker(t *testing.T) {
	agg := NewAggregator()
	agg.Register("broken", NewCheckerFunc("broken", func(context.Context) Result {
		panic("nil backend")
	}))
	agg.Register("ok", staticChecker("ok", Healthy("fine")))

	results := agg.CheckAll(context.Background())
	got := results["broken"]
	if got.Status != StatusUnhealthy || !errors.Is(got.Error, ErrCheckFailed) {
		t.Errorf("broken = %+v, want unhealthy with ErrCheckFailed", got)
	}
	if results["ok"].Status != StatusHealthy {
		t.Errorf("ok = %v, want healthy", results["ok"].Status)
	}
}
