package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/matchcache/analysis"
	"github.com/jonwraymond/matchcache/observe"
)

// recordingBackend wraps a backend and records calls.
type recordingBackend struct {
	Backend

	mu      sync.Mutex
	gets    int
	sets    int
	lastTTL time.Duration

	getErr error
	setErr error
}

func (r *recordingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r.mu.Lock()
	r.gets++
	getErr := r.getErr
	r.mu.Unlock()
	if getErr != nil {
		return nil, false, getErr
	}
	return r.Backend.Get(ctx, key)
}

func (r *recordingBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	r.sets++
	r.lastTTL = ttl
	setErr := r.setErr
	r.mu.Unlock()
	if setErr != nil {
		return setErr
	}
	return r.Backend.Set(ctx, key, value, ttl)
}

func (r *recordingBackend) counts() (gets, sets int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets, r.sets
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{Backend: NewMemoryBackend()}
}

// countingCompute returns a ComputeFunc that counts invocations.
func countingCompute(res analysis.Result) (ComputeFunc, *atomic.Int32) {
	var n atomic.Int32
	return func(context.Context) (analysis.Result, error) {
		n.Add(1)
		return res, nil
	}, &n
}

func successResult(score int) analysis.Result {
	return analysis.Result{
		Kind:          analysis.KindSuccess,
		MatchAnalysis: &analysis.MatchAnalysis{Score: analysis.Score(score), Summary: "ok"},
	}
}

// lookupRecorder captures metric outcomes.
type lookupRecorder struct {
	mu          sync.Mutex
	outcomes    []string
	storeErrors int
	computes    int
}

func (l *lookupRecorder) RecordLookup(_ context.Context, _ string, outcome string) {
	l.mu.Lock()
	l.outcomes = append(l.outcomes, outcome)
	l.mu.Unlock()
}

func (l *lookupRecorder) RecordStoreError(context.Context, string) {
	l.mu.Lock()
	l.storeErrors++
	l.mu.Unlock()
}

func (l *lookupRecorder) RecordCompute(context.Context, string, time.Duration, bool) {
	l.mu.Lock()
	l.computes++
	l.mu.Unlock()
}

func TestResultCache_ComputeOnce(t *testing.T) {
	backend := newRecordingBackend()
	rc := NewResultCache(backend, nil, DefaultPolicy())
	compute, calls := countingCompute(successResult(85))
	ctx := context.Background()

	first, err := rc.LookupOrCompute(ctx, []byte("doc"), "query", compute, 0)
	if err != nil {
		t.Fatalf("first call error = %v", err)
	}
	second, err := rc.LookupOrCompute(ctx, []byte("doc"), "query", compute, 0)
	if err != nil {
		t.Fatalf("second call error = %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("compute called %d times, want 1", calls.Load())
	}
	if first.MatchAnalysis.Score != 85 || second.MatchAnalysis.Score != 85 {
		t.Errorf("results = %+v, %+v", first.MatchAnalysis, second.MatchAnalysis)
	}
	gets, sets := backend.counts()
	if gets != 2 || sets != 1 {
		t.Errorf("backend calls: gets=%d sets=%d, want 2 and 1", gets, sets)
	}
	if backend.lastTTL != time.Hour {
		t.Errorf("stored TTL = %v, want 1h", backend.lastTTL)
	}
}

func TestResultCache_DistinctInputs(t *testing.T) {
	rc := NewResultCache(NewMemoryBackend(), nil, DefaultPolicy())
	compute, calls := countingCompute(successResult(10))
	ctx := context.Background()

	_, _ = rc.LookupOrCompute(ctx, []byte("doc"), "query a", compute, 0)
	_, _ = rc.LookupOrCompute(ctx, []byte("doc"), "query b", compute, 0)
	_, _ = rc.LookupOrCompute(ctx, []byte("other doc"), "query a", compute, 0)

	if calls.Load() != 3 {
		t.Errorf("compute called %d times, want 3", calls.Load())
	}
}

func TestResultCache_GetErrorIsMiss(t *testing.T) {
	backend := newRecordingBackend()
	backend.getErr = ErrBackendUnavailable
	metrics := &lookupRecorder{}
	rc := NewResultCache(backend, nil, DefaultPolicy(), WithMetrics(metrics))
	compute, calls := countingCompute(successResult(42))

	for i := 0; i < 2; i++ {
		res, err := rc.LookupOrCompute(context.Background(), []byte("doc"), "q", compute, 0)
		if err != nil {
			t.Fatalf("LookupOrCompute() error = %v", err)
		}
		if res.MatchAnalysis.Score != 42 {
			t.Errorf("score = %d, want 42", res.MatchAnalysis.Score)
		}
	}

	if calls.Load() != 2 {
		t.Errorf("compute called %d times, want 2", calls.Load())
	}
	if len(metrics.outcomes) != 2 || metrics.outcomes[0] != observe.OutcomeError {
		t.Errorf("outcomes = %v, want two errors", metrics.outcomes)
	}
}

func TestResultCache_SetErrorIgnored(t *testing.T) {
	backend := newRecordingBackend()
	backend.setErr = ErrBackendUnavailable
	metrics := &lookupRecorder{}
	rc := NewResultCache(backend, nil, DefaultPolicy(), WithMetrics(metrics))
	compute, _ := countingCompute(successResult(7))

	res, err := rc.LookupOrCompute(context.Background(), []byte("doc"), "q", compute, 0)
	if err != nil {
		t.Fatalf("LookupOrCompute() error = %v", err)
	}
	if res.MatchAnalysis.Score != 7 {
		t.Errorf("score = %d, want 7", res.MatchAnalysis.Score)
	}
	if metrics.storeErrors != 1 {
		t.Errorf("storeErrors = %d, want 1", metrics.storeErrors)
	}
}

func TestResultCache_CorruptEntryIsMiss(t *testing.T) {
	backend := NewMemoryBackend()
	rc := NewResultCache(backend, nil, DefaultPolicy())
	ctx := context.Background()

	key := rc.Key([]byte("doc"), "q")
	_ = backend.Set(ctx, key, []byte("{not json"), time.Hour)

	compute, calls := countingCompute(successResult(55))
	res, err := rc.LookupOrCompute(ctx, []byte("doc"), "q", compute, 0)
	if err != nil {
		t.Fatalf("LookupOrCompute() error = %v", err)
	}
	if calls.Load() != 1 || res.MatchAnalysis.Score != 55 {
		t.Errorf("calls=%d result=%+v, want recompute", calls.Load(), res.MatchAnalysis)
	}

	data, _, _ := backend.Get(ctx, key)
	if _, err := Decode(data); err != nil {
		t.Errorf("corrupt entry was not replaced: %v", err)
	}
}

func TestResultCache_ComputeErrorPassedThrough(t *testing.T) {
	backend := newRecordingBackend()
	rc := NewResultCache(backend, nil, DefaultPolicy())
	wantErr := errors.New("empty document")

	_, err := rc.LookupOrCompute(context.Background(), []byte(""), "q", func(context.Context) (analysis.Result, error) {
		return analysis.Result{}, wantErr
	}, 0)

	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
	if _, sets := backend.counts(); sets != 0 {
		t.Errorf("sets = %d, want 0", sets)
	}
}

func TestResultCache_ErrorResults(t *testing.T) {
	tests := []struct {
		name     string
		errorTTL time.Duration
		wantSets int
		wantTTL  time.Duration
		wantRuns int32
	}{
		{"cached like success", 0, 1, time.Hour, 1},
		{"not cached", -1, 0, 0, 2},
		{"short ttl", time.Minute, 1, time.Minute, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newRecordingBackend()
			rc := NewResultCache(backend, nil, Policy{DefaultTTL: time.Hour, ErrorTTL: tt.errorTTL})
			compute, calls := countingCompute(analysis.NewErrorResult(analysis.ErrMsgAPI, "quota"))

			for i := 0; i < 2; i++ {
				res, err := rc.LookupOrCompute(context.Background(), []byte("doc"), "q", compute, 0)
				if err != nil {
					t.Fatalf("LookupOrCompute() error = %v", err)
				}
				if !res.IsError() {
					t.Fatalf("result kind = %q, want error", res.Kind)
				}
			}

			if _, sets := backend.counts(); sets != tt.wantSets {
				t.Errorf("sets = %d, want %d", sets, tt.wantSets)
			}
			if backend.lastTTL != tt.wantTTL {
				t.Errorf("ttl = %v, want %v", backend.lastTTL, tt.wantTTL)
			}
			if calls.Load() != tt.wantRuns {
				t.Errorf("compute runs = %d, want %d", calls.Load(), tt.wantRuns)
			}
		})
	}
}

func TestResultCache_TTLOverride(t *testing.T) {
	backend := newRecordingBackend()
	rc := NewResultCache(backend, nil, Policy{DefaultTTL: time.Hour, MaxTTL: 2 * time.Hour})
	compute, _ := countingCompute(successResult(1))

	_, _ = rc.LookupOrCompute(context.Background(), []byte("a"), "q", compute, 10*time.Minute)
	if backend.lastTTL != 10*time.Minute {
		t.Errorf("ttl = %v, want 10m", backend.lastTTL)
	}
	_, _ = rc.LookupOrCompute(context.Background(), []byte("b"), "q", compute, 24*time.Hour)
	if backend.lastTTL != 2*time.Hour {
		t.Errorf("ttl = %v, want clamp to 2h", backend.lastTTL)
	}
}

func TestResultCache_Metrics(t *testing.T) {
	metrics := &lookupRecorder{}
	rc := NewResultCache(NewMemoryBackend(), nil, DefaultPolicy(), WithMetrics(metrics))
	compute, _ := countingCompute(successResult(1))

	_, _ = rc.LookupOrCompute(context.Background(), []byte("a"), "q", compute, 0)
	_, _ = rc.LookupOrCompute(context.Background(), []byte("a"), "q", compute, 0)

	want := []string{observe.OutcomeMiss, observe.OutcomeHit}
	if len(metrics.outcomes) != 2 || metrics.outcomes[0] != want[0] || metrics.outcomes[1] != want[1] {
		t.Errorf("outcomes = %v, want %v", metrics.outcomes, want)
	}
	if metrics.computes != 1 {
		t.Errorf("computes = %d, want 1", metrics.computes)
	}
}

func TestResultCache_Invalidate(t *testing.T) {
	rc := NewResultCache(NewMemoryBackend(), nil, DefaultPolicy())
	compute, calls := countingCompute(successResult(1))
	ctx := context.Background()

	_, _ = rc.LookupOrCompute(ctx, []byte("a"), "q", compute, 0)
	if err := rc.Invalidate(ctx, rc.Key([]byte("a"), "q")); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	_, _ = rc.LookupOrCompute(ctx, []byte("a"), "q", compute, 0)

	if calls.Load() != 2 {
		t.Errorf("compute called %d times, want 2", calls.Load())
	}
	if err := rc.Invalidate(ctx, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Invalidate(\"\") = %v, want ErrInvalidKey", err)
	}
}

func TestResultCache_Scenario(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sel := Select(context.Background(), SelectorConfig{Redis: client})
	t.Cleanup(func() { _ = client.Close() })
	if sel.State() != StateNetworked {
		t.Fatalf("State() = %v, want networked", sel.State())
	}

	rc := NewResultCache(sel.Backend(), NewMD5Keyer(), DefaultPolicy())
	doc := []byte("%PDF-1.4 sample")
	query := "Python backend engineer"
	const wantKey = "e1a7df8eb3d8ad3a9336fc23c1350ff0_1e32ec9d205c91e700b15464b0411cfe"

	if got := rc.Key(doc, query); got != wantKey {
		t.Fatalf("Key() = %q, want %q", got, wantKey)
	}

	var stored analysis.Result
	if err := json.Unmarshal([]byte(`{"score":85}`), &stored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	compute, calls := countingCompute(stored)
	ctx := context.Background()

	if _, err := rc.LookupOrCompute(ctx, doc, query, compute, 0); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	if !mr.Exists(wantKey) {
		t.Fatal("result not stored under the derived key")
	}
	if ttl := mr.TTL(wantKey); ttl != 3600*time.Second {
		t.Errorf("TTL = %v, want 3600s", ttl)
	}

	got, err := rc.LookupOrCompute(ctx, doc, query, compute, 0)
	if err != nil {
		t.Fatalf("second call error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("compute called %d times, want 1", calls.Load())
	}
	out, _ := json.Marshal(got)
	if string(out) != `{"score":85}` {
		t.Errorf("second result = %s, want {\"score\":85}", out)
	}

	mr.FastForward(3601 * time.Second)
	if _, err := rc.LookupOrCompute(ctx, doc, query, compute, 0); err != nil {
		t.Fatalf("third call error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("compute called %d times after expiry, want 2", calls.Load())
	}
}

func TestResultCache_RedisLostAfterStartup(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:         mr.Addr(),
		DialTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
		MaxRetries:   -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	sel := Select(context.Background(), SelectorConfig{Redis: client})
	if sel.State() != StateNetworked {
		t.Fatalf("State() = %v, want networked", sel.State())
	}

	metrics := &lookupRecorder{}
	rc := NewResultCache(sel.Backend(), nil, DefaultPolicy(), WithMetrics(metrics))
	compute, calls := countingCompute(successResult(85))
	ctx := context.Background()

	mr.Close()

	for i := 1; i <= 2; i++ {
		res, err := rc.LookupOrCompute(ctx, []byte("doc"), "query", compute, 0)
		if err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
		if res.MatchAnalysis == nil || res.MatchAnalysis.Score != 85 {
			t.Errorf("call %d result = %+v", i, res.MatchAnalysis)
		}
		if got := calls.Load(); got != int32(i) {
			t.Errorf("compute called %d times after call %d, want %d", got, i, i)
		}
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.storeErrors != 2 {
		t.Errorf("store errors = %d, want 2", metrics.storeErrors)
	}
	for _, o := range metrics.outcomes {
		if o != observe.OutcomeError {
			t.Errorf("lookup outcome = %q, want %q", o, observe.OutcomeError)
		}
	}
}

func TestResultCache_ConcurrentMissesLastWriteWins(t *testing.T) {
	rc := NewResultCache(NewMemoryBackend(), nil, DefaultPolicy())
	compute, calls := countingCompute(successResult(3))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := rc.LookupOrCompute(context.Background(), []byte("doc"), "q", compute, 0)
			if err != nil || res.MatchAnalysis.Score != 3 {
				t.Errorf("LookupOrCompute() = (%+v, %v)", res, err)
			}
		}()
	}
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 8 {
		t.Errorf("compute runs = %d, want between 1 and 8", n)
	}
}
