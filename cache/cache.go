package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrBackendUnavailable wraps connectivity failures of a backend.
	ErrBackendUnavailable = errors.New("cache: backend unavailable")

	// ErrSerialization reports a stored value that could not be decoded.
	ErrSerialization = errors.New("cache: serialization failed")
)

// Backend is a key-value store with per-entry expiration.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Get: a missing or expired key returns (nil, false, nil). Only
// connectivity failures return an error, and that error matches
// ErrBackendUnavailable.
// - Set: replaces any prior value. A non-positive ttl stores nothing.
// - Delete: idempotent, no error on miss.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Name identifies the backend in logs and metrics.
	Name() string
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
