package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/catalog"
	"github.com/cod1ng-earth/splicenft/pkg/config"
	"github.com/cod1ng-earth/splicenft/pkg/gate"
	"github.com/cod1ng-earth/splicenft/pkg/httputil"
	"github.com/cod1ng-earth/splicenft/pkg/pipeline"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/storage"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// metadataNamespace scopes cached catalog documents.
const metadataNamespace = "metadata"

// app is the component graph shared by the commands.
type app struct {
	cfg      *config.Config
	cache    cache.Cache
	registry *style.Registry
	runner   *pipeline.Runner
	store    storage.CAS
	resolver *storage.Resolver
	gate     *gate.Gate
}

func (c *CLI) newApp(ctx context.Context, logger *log.Logger) (*app, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg, logger)
}

func buildApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	cacheImpl, err := cache.Open(ctx, cfg.CacheOpen())
	if err != nil {
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	ttl := cfg.Cache.TTL.Std()

	client := httputil.NewClient(cacheImpl, metadataNamespace, ttl, nil)
	networks := cfg.StyleNetworks(client, logger)
	if cfg.Cache.Backend != "" && cfg.Cache.Backend != cache.BackendNone {
		for i, n := range networks {
			networks[i].Source = catalog.NewCachedSource(n.Source, cacheImpl, keyer, n.ID, catalog.DefaultCatalogTTL, logger)
		}
	}
	registry := style.NewRegistry(logger, networks...)

	store, err := openStore(cfg)
	if err != nil {
		cacheImpl.Close()
		return nil, err
	}

	runner := pipeline.NewRunner(registry, render.NewEngine(cfg.Render.MaxSteps), cacheImpl, keyer, logger).WithStore(store)
	if ttl > 0 {
		runner.TTL = ttl
	}

	fetcher := httputil.NewClient(nil, "", 0, nil).WithRetry(3, 500*time.Millisecond)
	resolver := storage.NewResolver(store, fetcher, cfg.Storage.Gateway, logger)

	gcfg, err := cfg.GateConfig()
	if err != nil {
		cacheImpl.Close()
		return nil, err
	}
	g, err := gate.New(runner, resolver, gcfg, logger)
	if err != nil {
		cacheImpl.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		cache:    cacheImpl,
		registry: registry,
		runner:   runner,
		store:    store,
		resolver: resolver,
		gate:     g,
	}, nil
}

func openStore(cfg *config.Config) (storage.CAS, error) {
	if cfg.Storage.Dir == "" {
		return storage.NewMemoryCAS(), nil
	}
	return storage.NewFileCAS(cfg.Storage.Dir)
}

func (a *app) Close() error {
	return a.runner.Close()
}
