package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries in Redis using native key expiry.
type RedisBackend struct {
	client redis.UniversalClient
}

// NewRedisBackend wraps an existing client. The backend takes ownership of
// the client; Close closes it.
func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// Name returns "redis".
func (r *RedisBackend) Name() string { return "redis" }

// Get issues GET. redis.Nil is reported as a miss.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	return val, true, nil
}

// Set issues SET with an expiry. A non-positive ttl stores nothing.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Delete issues DEL. Deleting a missing key is not an error.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Ping checks that the server answers PING with PONG.
func (r *RedisBackend) Ping(ctx context.Context) error {
	reply, err := r.client.Ping(ctx).Result()
	if err != nil {
		return unavailable("ping", err)
	}
	if reply != "PONG" {
		return fmt.Errorf("%w: unexpected ping reply %q", ErrBackendUnavailable, reply)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %w", ErrBackendUnavailable, op, err)
}

var _ Backend = (*RedisBackend)(nil)
