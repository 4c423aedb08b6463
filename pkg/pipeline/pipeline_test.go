package pipeline

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/catalog"
	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/storage"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

const (
	testNetwork    = 42
	testCollection = "0x231e5BA16e2C9BE8918cf67d477052f3F6C35036"
)

func newTestRunner(c cache.Cache) *Runner {
	quiet := log.NewWithOptions(io.Discard, log.Options{})
	reg := style.NewRegistry(quiet, style.Network{ID: testNetwork, Source: catalog.Builtin()})
	return NewRunner(reg, render.NewEngine(0), c, nil, quiet)
}

func smallOpts(styleID uint64) Options {
	return Options{
		Network:    testNetwork,
		StyleID:    styleID,
		Collection: testCollection,
		TokenID:    "1",
		Dim:        render.Dimensions{Width: 150, Height: 50},
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should be valid: %v", err)
	}
	if o.Dim != render.DefaultDimensions() {
		t.Errorf("Dim = %v, want default", o.Dim)
	}
	if o.Randomness == nil || *o.Randomness != render.DefaultRandomness {
		t.Errorf("Randomness = %v, want default", o.Randomness)
	}
	if o.Logger == nil {
		t.Error("Logger not defaulted")
	}

	neg := -0.5
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"collection without token", Options{Collection: testCollection}, errors.ErrCodeInvalidRequest},
		{"token without collection", Options{TokenID: "1"}, errors.ErrCodeInvalidRequest},
		{"zero width", Options{Dim: render.Dimensions{Width: 0, Height: 10}}, errors.ErrCodeInvalidRequest},
		{"randomness", Options{Randomness: &neg}, errors.ErrCodeInvalidRequest},
		{"oversized palette", Options{Palette: make(render.Palette, 300)}, errors.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestResolveSeed(t *testing.T) {
	explicit := uint32(7)
	tests := []struct {
		name string
		opts Options
		want uint32
	}{
		{"derived", Options{Collection: testCollection, TokenID: "1"}, 3934047154},
		{"derived hex token", Options{Collection: testCollection, TokenID: "0x2a"}, 4155991876},
		{"explicit", Options{Collection: testCollection, TokenID: "1", Seed: &explicit}, 7},
		{"generic", Options{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.ResolveSeed()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ResolveSeed() = %d, want %d", got, tt.want)
			}
		})
	}

	bad := Options{Collection: "0x1234", TokenID: "1"}
	if _, err := bad.ResolveSeed(); !errors.Is(err, errors.ErrCodeInvalidAddress) {
		t.Errorf("ResolveSeed() = %v, want INVALID_ADDRESS", err)
	}
}

func TestExecute_CachesRenders(t *testing.T) {
	mc := cache.NewMemoryCache()
	r := newTestRunner(mc)
	ctx := context.Background()

	first, err := r.Execute(ctx, smallOpts(1))
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first run reported a cache hit")
	}
	if first.Seed != 3934047154 {
		t.Errorf("Seed = %d", first.Seed)
	}
	if first.Raster.Width != 150 || first.Raster.Height != 50 {
		t.Errorf("raster is %dx%d", first.Raster.Width, first.Raster.Height)
	}
	if err := storage.Verify(first.CID, first.PNG); err != nil {
		t.Errorf("CID does not match PNG: %v", err)
	}

	second, err := r.Execute(ctx, smallOpts(1))
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run missed the cache")
	}
	if !bytes.Equal(first.PNG, second.PNG) || !first.CID.Equals(second.CID) {
		t.Error("cached render differs from original")
	}
	if !first.Raster.Equal(second.Raster) {
		t.Error("cached raster differs from original")
	}

	refresh := smallOpts(1)
	refresh.Refresh = true
	third, err := r.Execute(ctx, refresh)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh run reported a cache hit")
	}
	if !bytes.Equal(first.PNG, third.PNG) {
		t.Error("re-render is not deterministic")
	}
	if mc.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", mc.Len())
	}
}

func TestExecute_CorruptCacheEntry(t *testing.T) {
	mc := cache.NewMemoryCache()
	r := newTestRunner(mc)
	ctx := context.Background()

	res, err := r.Execute(ctx, smallOpts(2))
	if err != nil {
		t.Fatal(err)
	}
	key := r.Keyer.RenderKey(RenderKeyOpts(res.Style, res.Request))
	_ = mc.Set(ctx, key, []byte("garbage"), 0)

	again, err := r.Execute(ctx, smallOpts(2))
	if err != nil {
		t.Fatal(err)
	}
	if again.CacheInfo.RenderHit {
		t.Error("corrupt entry served as a hit")
	}
	if !bytes.Equal(res.PNG, again.PNG) {
		t.Error("re-render differs")
	}
}

func TestExecute_InputsChangeOutput(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()

	base, err := r.Execute(ctx, smallOpts(3))
	if err != nil {
		t.Fatal(err)
	}

	otherToken := smallOpts(3)
	otherToken.TokenID = "42"
	otherStyle := smallOpts(1)
	otherPalette := smallOpts(3)
	otherPalette.Palette = render.Palette{{255, 0, 0}, {0, 0, 255}}

	for name, opts := range map[string]Options{"token": otherToken, "style": otherStyle, "palette": otherPalette} {
		res, err := r.Execute(ctx, opts)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.CID.Equals(base.CID) {
			t.Errorf("changing %s did not change the image", name)
		}
	}
}

func TestExecute_PalettePrecedence(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()

	// style 1 has no palette of its own
	res, err := r.Execute(ctx, smallOpts(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Request.Palette) != len(render.Grayscale) {
		t.Errorf("style without palette rendered with %v", res.Request.Palette.Hex())
	}

	res, err = r.Execute(ctx, smallOpts(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Request.Palette) != len(res.Style.Palette) {
		t.Errorf("style palette not used: %v", res.Request.Palette.Hex())
	}

	override := smallOpts(2)
	override.Palette = render.Palette{{9, 9, 9}}
	res, err = r.Execute(ctx, override)
	if err != nil {
		t.Fatal(err)
	}
	if c := res.Raster.At(10, 10); c.R != 9 || c.G != 9 || c.B != 9 {
		t.Errorf("override palette not used, pixel = %v", c)
	}
}

func TestExecute_Errors(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()

	unknownStyle := smallOpts(99)
	unknownNetwork := smallOpts(1)
	unknownNetwork.Network = 1
	badToken := smallOpts(1)
	badToken.TokenID = "-1"

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"unknown style", unknownStyle, errors.ErrCodeNotFound},
		{"unknown network", unknownNetwork, errors.ErrCodeNotFound},
		{"bad token", badToken, errors.ErrCodeInvalidTokenID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Execute(ctx, tt.opts); !errors.Is(err, tt.code) {
				t.Errorf("Execute() = %v, want %s", err, tt.code)
			}
		})
	}

	noStyles := NewRunner(nil, nil, nil, nil, nil)
	if _, err := noStyles.Execute(ctx, smallOpts(1)); !errors.Is(err, errors.ErrCodeCatalogUnavailable) {
		t.Errorf("runner without registry = %v, want CATALOG_UNAVAILABLE", err)
	}
}

func TestExecute_Publish(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()
	opts := smallOpts(1)
	opts.Publish = true

	if _, err := r.Execute(ctx, opts); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("publish without store = %v, want UNSUPPORTED", err)
	}

	store := storage.NewMemoryCAS()
	r.WithStore(store)
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Published || !store.Has(ctx, res.CID) {
		t.Error("render not published")
	}
	data, err := store.Get(ctx, res.CID)
	if err != nil || !bytes.Equal(data, res.PNG) {
		t.Errorf("stored bytes differ: %v", err)
	}
}
