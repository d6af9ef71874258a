// Package core declares the ports between services and their storage adapters.
package core

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// The core defines it and internal/data provides the Redis implementation.
type CacheRepository interface {
	// Set stores a value with the given TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil, nil when the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Incr increments a counter and sets its TTL when it is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}
