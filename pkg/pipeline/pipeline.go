// Package pipeline turns a style and a source asset into a published image.
//
// This package implements the resolve → render → encode → publish pipeline
// shared by the CLI, the HTTP server and the mint gate, so every entry point
// produces byte-identical references for the same inputs.
//
// # Stages
//
//  1. Resolve: look up the style in the registry and derive the seed from
//     the source asset (collection address and token id)
//  2. Render: run the style program through the render engine
//  3. Encode: encode the raster as PNG and compute its CID
//  4. Publish: optionally put the PNG into content-addressed storage
//
// Renders are cached by every input that can change a pixel.
//
// # Usage
//
//	runner := pipeline.NewRunner(registry, render.NewEngine(0), cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Network:    42,
//	    StyleID:    1,
//	    Collection: "0x231e5BA16e2C9BE8918cf67d477052f3F6C35036",
//	    TokenID:    "1",
//	})
//	fmt.Println(res.CID, len(res.PNG))
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ipfs/go-cid"

	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/seed"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// DefaultRenderTTL is how long encoded renders stay cached.
const DefaultRenderTTL = 7 * 24 * time.Hour

// Options selects one render.
//
// The seed comes from Seed when set, otherwise from Collection and TokenID.
// With neither, the generic preview seed 0 is used. The palette is Palette
// when set, otherwise the style's own palette, otherwise [render.Grayscale].
type Options struct {
	Network uint64 `json:"network"`
	StyleID uint64 `json:"style"`

	Collection string  `json:"collection,omitempty"`
	TokenID    string  `json:"token_id,omitempty"`
	Seed       *uint32 `json:"seed,omitempty"`

	Palette    render.Palette    `json:"-"`
	Dim        render.Dimensions `json:"dim"`
	Randomness *float64          `json:"randomness,omitempty"`

	Refresh bool `json:"refresh,omitempty"` // Skip the render cache read
	Publish bool `json:"publish,omitempty"` // Put the PNG into the runner's store

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the source asset and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Dim.Width == 0 && o.Dim.Height == 0 {
		o.Dim = render.DefaultDimensions()
	}
	if err := errors.ValidateDimensions(o.Dim.Width, o.Dim.Height); err != nil {
		return err
	}
	if o.Randomness == nil {
		r := render.DefaultRandomness
		o.Randomness = &r
	}
	if err := errors.ValidateRandomness(*o.Randomness); err != nil {
		return err
	}
	if (o.Collection == "") != (o.TokenID == "") && o.Seed == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "collection and token id must be given together")
	}
	if len(o.Palette) > 0 {
		if err := o.Palette.Validate(); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ResolveSeed returns the seed selected by the options.
func (o *Options) ResolveSeed() (uint32, error) {
	if o.Seed != nil {
		return *o.Seed, nil
	}
	if o.Collection == "" {
		return 0, nil
	}
	return seed.DeriveString(o.Collection, o.TokenID)
}

// Request builds the render request for st.
func (o *Options) Request(st style.Style, s uint32) render.Request {
	palette := o.Palette
	if len(palette) == 0 {
		palette = st.PaletteOr(render.Grayscale)
	}
	randomness := render.DefaultRandomness
	if o.Randomness != nil {
		randomness = *o.Randomness
	}
	return render.Request{
		Seed:       s,
		Palette:    palette,
		Dim:        o.Dim,
		Randomness: randomness,
	}
}

// RenderKeyOpts returns the cache key options for rendering st with req.
func RenderKeyOpts(st style.Style, req render.Request) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Network:       st.Network,
		StyleID:       st.ID,
		Program:       st.Program.Name(),
		Seed:          req.Seed,
		Width:         req.Dim.Width,
		Height:        req.Dim.Height,
		Palette:       req.Palette.Hex(),
		Randomness:    req.Randomness,
		EngineVersion: render.EngineVersion,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Style   style.Style
	Seed    uint32
	Request render.Request

	// Raster is the rendered image and PNG its encoding.
	Raster *render.Raster
	PNG    []byte
	CID    cid.Cid

	// Published is true when the PNG was put into the store.
	Published bool

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ResolveTime time.Duration
	RenderTime  time.Duration
	EncodeTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether the PNG came from cache
}
