package repository

import (
	"context"
	"time"
)

// CacheRepository defines the byte-level cache used for signal query results.
type CacheRepository interface {
	// Get fetches a value by key; a nil slice with nil error is a cache miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
