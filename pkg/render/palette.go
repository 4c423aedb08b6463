package render

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
)

// MaxPaletteSize is the largest number of colors a palette may declare.
const MaxPaletteSize = 256

// RGB is an opaque color.
type RGB [3]uint8

// Hex returns the color as "#rrggbb".
func (c RGB) Hex() string {
	return "#" + hex.EncodeToString(c[:])
}

// ParseRGB parses "#rrggbb" or "rrggbb".
func ParseRGB(s string) (RGB, error) {
	var c RGB
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return c, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	if _, err := hex.Decode(c[:], []byte(h)); err != nil {
		return c, fmt.Errorf("color %q: %w", s, err)
	}
	return c, nil
}

// Palette is an ordered, finite set of colors a program may choose from.
type Palette []RGB

// Grayscale is the eight-tone palette used for generic style previews.
var Grayscale = Palette{
	{20, 30, 40},
	{80, 80, 80},
	{100, 100, 100},
	{150, 150, 150},
	{175, 175, 175},
	{200, 200, 200},
	{220, 220, 220},
	{250, 250, 250},
}

// ParsePalette parses a list of hex colors.
func ParsePalette(colors []string) (Palette, error) {
	p := make(Palette, 0, len(colors))
	for _, s := range colors {
		c, err := ParseRGB(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest, err, "invalid palette")
		}
		p = append(p, c)
	}
	return p, p.Validate()
}

// Validate checks that the palette is non-empty and not oversized.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "palette must contain at least one color")
	}
	if len(p) > MaxPaletteSize {
		return errors.New(errors.ErrCodeInvalidRequest, "palette has %d colors (max %d)", len(p), MaxPaletteSize)
	}
	return nil
}

// Hex returns the palette as hex strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}

// Clone returns an independent copy.
func (p Palette) Clone() Palette {
	return append(Palette(nil), p...)
}
