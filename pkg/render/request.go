package render

import (
	"fmt"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
)

// Default render parameters for generic style previews.
const (
	DefaultWidth      = 1500
	DefaultHeight     = 500
	DefaultRandomness = 1.0
)

// Dimensions is an output size in pixels.
type Dimensions struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

// DefaultDimensions returns 1500×500.
func DefaultDimensions() Dimensions {
	return Dimensions{Width: DefaultWidth, Height: DefaultHeight}
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Pixels returns Width*Height.
func (d Dimensions) Pixels() int {
	return d.Width * d.Height
}

// Request is everything a program needs to produce an image.
type Request struct {
	Seed       uint32
	Palette    Palette
	Dim        Dimensions
	Randomness float64
}

// Validate checks palette, dimensions and randomness.
func (r Request) Validate() error {
	if err := r.Palette.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateDimensions(r.Dim.Width, r.Dim.Height); err != nil {
		return err
	}
	return errors.ValidateRandomness(r.Randomness)
}
