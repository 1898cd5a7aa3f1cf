// Package cache provides a small byte-value cache with TTL semantics, backed
// by Redis when configured and by process memory otherwise.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with a per-entry TTL.
// A miss is not an error; Get reports it through the bool return.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
