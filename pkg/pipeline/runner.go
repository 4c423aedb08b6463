package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ipfs/go-cid"

	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/imagecodec"
	"github.com/cod1ng-earth/splicenft/pkg/observability"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/storage"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// StyleResolver looks up styles. *style.Registry implements it.
type StyleResolver interface {
	GetStyle(ctx context.Context, network, id uint64) (style.Style, error)
}

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for its collaborators, so multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Styles StyleResolver
	Engine *render.Engine
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  storage.CAS
	TTL    time.Duration
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(styles StyleResolver, engine *render.Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if engine == nil {
		engine = render.NewEngine(0)
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Styles: styles,
		Engine: engine,
		Cache:  c,
		Keyer:  keyer,
		TTL:    DefaultRenderTTL,
		Logger: logger,
	}
}

// WithStore sets the storage renders are published to.
func (r *Runner) WithStore(s storage.CAS) *Runner {
	r.Store = s
	return r
}

// Execute runs the complete resolve → render → encode → publish pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	resolveStart := time.Now()
	st, s, err := r.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Style: st, Seed: s, Request: opts.Request(st, s)}
	res.Stats.ResolveTime = time.Since(resolveStart)

	renderStart := time.Now()
	png, raster, hit, err := r.RenderWithCacheInfo(ctx, st, res.Request, opts.Refresh)
	if err != nil {
		return nil, err
	}
	res.PNG, res.Raster = png, raster
	res.CacheInfo.RenderHit = hit
	res.Stats.RenderTime = time.Since(renderStart)

	encodeStart := time.Now()
	if res.CID, err = storage.CID(png); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "content address render")
	}
	res.Stats.EncodeTime = time.Since(encodeStart)

	if opts.Publish {
		if err := r.Publish(ctx, res.CID, png); err != nil {
			return nil, err
		}
		res.Published = true
	}

	opts.Logger.Info("rendered style",
		"network", st.Network,
		"style", st.ID,
		"seed", s,
		"cid", res.CID,
		"cached", hit,
		"duration", res.Stats.RenderTime)
	return res, nil
}

// Resolve looks up the style selected by opts and derives the seed.
func (r *Runner) Resolve(ctx context.Context, opts Options) (style.Style, uint32, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return style.Style{}, 0, err
	}
	s, err := opts.ResolveSeed()
	if err != nil {
		return style.Style{}, 0, err
	}
	if r.Styles == nil {
		return style.Style{}, 0, errors.New(errors.ErrCodeCatalogUnavailable, "no style registry configured")
	}
	st, err := r.Styles.GetStyle(ctx, opts.Network, opts.StyleID)
	if err != nil {
		return style.Style{}, 0, err
	}
	return st, s, nil
}

// RenderWithCacheInfo renders st for req and returns the PNG, the raster and
// whether the PNG came from cache. If refresh is true the cache read is
// skipped.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, st style.Style, req render.Request, refresh bool) ([]byte, *render.Raster, bool, error) {
	if st.Program == nil {
		return nil, nil, false, errors.New(errors.ErrCodeRenderFailure, "style %d has no program", st.ID)
	}
	key := r.Keyer.RenderKey(RenderKeyOpts(st, req))
	hooks := observability.Cache()

	if !refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Debug("render cache read failed", "key", key, "error", err)
		}
		if hit {
			if raster, err := imagecodec.Decode(data); err == nil && raster.Width == req.Dim.Width && raster.Height == req.Dim.Height {
				hooks.OnCacheHit(ctx, "render")
				return data, raster, true, nil
			}
			// If decoding fails, fall through to re-render
			r.Logger.Warn("discarding corrupt render cache entry", "key", key)
		}
		hooks.OnCacheMiss(ctx, "render")
	}

	raster, err := r.Render(ctx, st, req)
	if err != nil {
		return nil, nil, false, err
	}
	data, err := imagecodec.Encode(raster)
	if err != nil {
		return nil, nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Debug("render cache write failed", "key", key, "error", err)
	} else {
		hooks.OnCacheSet(ctx, "render", len(data))
	}
	return data, raster, false, nil
}

// Render runs the style's program without caching.
func (r *Runner) Render(ctx context.Context, st style.Style, req render.Request) (*render.Raster, error) {
	name := "unknown"
	if st.Program != nil {
		name = st.Program.Name()
	}
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, name)
	start := time.Now()
	raster, err := r.Engine.Render(ctx, st.Program, req)
	hooks.OnRenderComplete(ctx, name, time.Since(start), err)
	return raster, err
}

// Publish puts data into the store and checks that it lands under id.
func (r *Runner) Publish(ctx context.Context, id cid.Cid, data []byte) error {
	if r.Store == nil {
		return errors.New(errors.ErrCodeUnsupported, "no storage configured for publishing")
	}
	got, err := r.Store.Put(ctx, data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "publish %s", id)
	}
	if !got.Equals(id) {
		return errors.New(errors.ErrCodeInternal, "store returned %s for %s", got, id)
	}
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
