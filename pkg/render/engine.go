package render

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
)

// EngineVersion identifies the rasterization behavior. Any change that can
// alter a single output pixel must bump it; cache keys include it.
const EngineVersion = "1"

// DefaultMaxSteps bounds the canvas operations one render may perform.
const DefaultMaxSteps = 200_000

// seedMix decorrelates the second PCG word from the first.
const seedMix = 0xdeadbeef

// Engine runs programs. The zero value is not usable; use NewEngine.
type Engine struct {
	maxSteps int
}

// NewEngine returns an engine with the given step budget. A non-positive
// budget selects DefaultMaxSteps.
func NewEngine(maxSteps int) *Engine {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Engine{maxSteps: maxSteps}
}

// MaxSteps returns the step budget.
func (e *Engine) MaxSteps() int { return e.maxSteps }

// NewRand returns the generator a program receives for seed.
func NewRand(seed uint32) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^seedMix))
}

// Render validates req, runs prog and returns the resulting raster.
//
// Invalid requests fail with INVALID_REQUEST. A program that returns an
// error, panics, or exceeds the step budget fails with RENDER_FAILURE. The
// context is checked before and after the program runs; programs themselves
// are not interruptible.
func (e *Engine) Render(ctx context.Context, prog Program, req Request) (*Raster, error) {
	if prog == nil {
		return nil, errors.New(errors.ErrCodeRenderFailure, "no program")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "render %s", prog.Name())
	}

	c := newCanvas(req.Dim, req.Palette, e.maxSteps)
	c.Fill(0)

	in := Input{
		Seed:       req.Seed,
		Palette:    req.Palette.Clone(),
		Dim:        req.Dim,
		Randomness: req.Randomness,
		Rand:       NewRand(req.Seed),
	}
	if err := run(prog, c, in); err != nil {
		return nil, err
	}
	if c.Exhausted() {
		return nil, errors.New(errors.ErrCodeRenderFailure,
			"program %s exceeded step budget of %d", prog.Name(), e.maxSteps)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "render %s", prog.Name())
	}

	return &Raster{Width: req.Dim.Width, Height: req.Dim.Height, Pix: c.img.Pix}, nil
}

func run(prog Program, c *Canvas, in Input) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeRenderFailure, "program %s panicked: %v", prog.Name(), r)
		}
	}()
	if perr := prog.Render(c, in); perr != nil {
		return errors.Wrap(errors.ErrCodeRenderFailure, perr, "program %s", prog.Name())
	}
	return nil
}

// RenderFunc is a shorthand for rendering an ad-hoc function.
func (e *Engine) RenderFunc(ctx context.Context, name string, fn func(*Canvas, Input) error, req Request) (*Raster, error) {
	return e.Render(ctx, ProgramFunc{ID: name, Fn: fn}, req)
}

func (e *Engine) String() string {
	return fmt.Sprintf("render.Engine(v%s, max_steps=%d)", EngineVersion, e.maxSteps)
}
