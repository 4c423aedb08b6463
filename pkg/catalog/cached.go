package catalog

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/observability"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// DefaultCatalogTTL is how long a cached record list stays valid.
const DefaultCatalogTTL = time.Hour

// CachedSource stores the record list of an inner source in a cache, so a
// short-lived process does not refetch a remote catalog on every start.
// Cache failures fall through to the inner source.
type CachedSource struct {
	inner  style.Source
	cache  cache.Cache
	key    string
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedSource wraps inner. The key comes from keyer.CatalogKey(network).
func NewCachedSource(inner style.Source, c cache.Cache, keyer cache.Keyer, network uint64, ttl time.Duration, logger *log.Logger) *CachedSource {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &CachedSource{inner: inner, cache: c, key: keyer.CatalogKey(network), ttl: ttl, logger: logger}
}

// Styles returns the cached records or fetches and stores them.
func (s *CachedSource) Styles(ctx context.Context) ([]style.Record, error) {
	hooks := observability.Cache()
	if data, ok, err := s.cache.Get(ctx, s.key); err != nil {
		s.logger.Warn("catalog cache read failed", "key", s.key, "error", err)
	} else if ok {
		var records []style.Record
		if err := json.Unmarshal(data, &records); err == nil {
			hooks.OnCacheHit(ctx, "catalog")
			return records, nil
		}
		s.logger.Warn("discarding corrupt catalog cache entry", "key", s.key)
	}
	hooks.OnCacheMiss(ctx, "catalog")

	records, err := s.inner.Styles(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(records)
	if err != nil {
		return records, nil
	}
	if err := s.cache.Set(ctx, s.key, data, s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", "key", s.key, "error", err)
	} else {
		hooks.OnCacheSet(ctx, "catalog", len(data))
	}
	return records, nil
}

// Forget drops the cached entry so the next call refetches.
func (s *CachedSource) Forget(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key)
}
