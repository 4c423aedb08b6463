// Package cache provides byte-level caching for rendered images and fetched
// catalog metadata.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [MemoryCache]: process-local map, used by tests and short-lived servers
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [RedisCache]: shared cache for multiple server instances
//
// # Keys
//
// Keys are built by a [Keyer] so the CLI and the HTTP server agree on the
// layout. Render keys hash every input that can change a pixel, including
// the render engine version, so a cached image is only ever served for the
// exact request that produced it.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
//
// Get returns (nil, false, nil) on a miss. Backend failures are reported as
// errors; callers treat them as misses and log them.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Lookup is Get with misses reported as ErrCacheMiss.
func Lookup(ctx context.Context, c Cache, key string) ([]byte, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}
