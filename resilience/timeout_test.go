package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeout_Default(t *testing.T) {
	if got := NewTimeout(TimeoutConfig{}).Config().Timeout; got != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", got)
	}
}

func TestTimeout_Execute(t *testing.T) {
	opErr := errors.New("redis: connection refused")

	tests := []struct {
		name    string
		op      func(ctx context.Context) error
		wantErr error
	}{
		{
			name: "fast success",
			op:   func(context.Context) error { return nil },
		},
		{
			name:    "error passes through",
			op:      func(context.Context) error { return opErr },
			wantErr: opErr,
		},
		{
			name: "ignores deadline",
			op: func(context.Context) error {
				time.Sleep(100 * time.Millisecond)
				return nil
			},
			wantErr: ErrTimeout,
		},
		{
			name: "observes deadline",
			op: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			wantErr: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExecuteWithTimeout(context.Background(), 20*time.Millisecond, tt.op)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeout_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExecuteWithTimeout(ctx, time.Second, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("parent cancellation should not be reported as a timeout")
	}
}

func TestTimeout_ShorterParentDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := ExecuteWithTimeout(ctx, time.Minute, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Error("parent deadline was not honored")
	}
}
