package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Dir is the FileCache directory; empty selects DefaultDir.
	Dir   string
	Redis RedisOptions
}

// Open constructs the configured backend. An empty backend selects none.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendMemory:
		return NewMemoryCache(), nil
	case BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		fc, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case BackendRedis:
		rc, err := NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
