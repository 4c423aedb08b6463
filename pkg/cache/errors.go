package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned by Lookup when an item is not in the cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)
