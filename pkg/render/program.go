package render

import "math/rand/v2"

// Program is a deterministic style procedure. Render must draw only through
// the canvas and draw randomness only from in.Rand.
type Program interface {
	Name() string
	Render(c *Canvas, in Input) error
}

// Input is what the engine hands a program.
type Input struct {
	Seed       uint32
	Palette    Palette
	Dim        Dimensions
	Randomness float64

	// Rand is seeded from Seed. It is the only random source available.
	Rand *rand.Rand
}

// Jitter returns a value in [-amount, amount) scaled by Randomness.
// One value is always consumed from Rand, so the random stream consumed by a
// program does not depend on Randomness.
func (in Input) Jitter(amount float64) float64 {
	v := in.Rand.Float64()*2 - 1
	return v * amount * in.Randomness
}

// ProgramFunc adapts a function into a Program.
type ProgramFunc struct {
	ID string
	Fn func(c *Canvas, in Input) error
}

func (p ProgramFunc) Name() string { return p.ID }

func (p ProgramFunc) Render(c *Canvas, in Input) error { return p.Fn(c, in) }
