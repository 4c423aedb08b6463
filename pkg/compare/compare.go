// Package compare decides whether a candidate image matches a reference
// within a tolerance.
//
// A channel value differs when it is more than [Options.PixelDiffThreshold]
// away from the reference. The candidate is accepted when the share of
// differing channel values, in percent of all compared channel values, is
// at most [Options.ToleratedPercent]. Images of different sizes are never
// compared.
package compare

import (
	"fmt"
	"math"
	"strings"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/render"
)

// Defaults.
const (
	DefaultPixelDiffThreshold uint8   = 10
	DefaultToleratedPercent   float64 = 2
)

// ChannelSet selects which channels take part in the comparison.
type ChannelSet int

const (
	// RGBA compares all four channels.
	RGBA ChannelSet = iota
	// RGB ignores alpha.
	RGB
)

// Len is the number of channels compared per pixel.
func (c ChannelSet) Len() int {
	if c == RGB {
		return 3
	}
	return 4
}

func (c ChannelSet) String() string {
	if c == RGB {
		return "rgb"
	}
	return "rgba"
}

// ParseChannelSet parses "rgba" or "rgb". The empty string selects RGBA.
func ParseChannelSet(s string) (ChannelSet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rgba":
		return RGBA, nil
	case "rgb":
		return RGB, nil
	}
	return RGBA, errors.New(errors.ErrCodeInvalidInput, "unknown channel set %q (want rgba or rgb)", s)
}

// Options configures a comparison.
type Options struct {
	PixelDiffThreshold uint8
	ToleratedPercent   float64
	Channels           ChannelSet
}

// DefaultOptions returns threshold 10, tolerance 2% over RGBA.
func DefaultOptions() Options {
	return Options{
		PixelDiffThreshold: DefaultPixelDiffThreshold,
		ToleratedPercent:   DefaultToleratedPercent,
		Channels:           RGBA,
	}
}

// Validate checks the tolerance range.
func (o Options) Validate() error {
	if math.IsNaN(o.ToleratedPercent) || o.ToleratedPercent < 0 || o.ToleratedPercent > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "tolerated percent must be within [0, 100], got %v", o.ToleratedPercent)
	}
	if o.Channels != RGBA && o.Channels != RGB {
		return errors.New(errors.ErrCodeInvalidInput, "unknown channel set %d", o.Channels)
	}
	return nil
}

// Verdict is the outcome of a comparison or of a whole verification.
type Verdict struct {
	Accepted       bool        `json:"accepted" bson:"accepted"`
	DiffPercentage float64     `json:"diff_percentage" bson:"diff_percentage"`
	Reason         errors.Code `json:"reason,omitempty" bson:"reason,omitempty"`
	Message        string      `json:"message,omitempty" bson:"message,omitempty"`
}

// Reject returns a rejected verdict carrying err's code and user message.
func Reject(err error) Verdict {
	return Verdict{
		Accepted:       false,
		DiffPercentage: 100,
		Reason:         errors.CodeOr(err, errors.ErrCodeInternal),
		Message:        errors.UserMessage(err),
	}
}

// Compare compares cand against ref.
//
// A size mismatch returns a rejected verdict with reason DIMENSION_MISMATCH
// together with the same error. Otherwise the error is nil and the verdict
// holds the difference percentage.
func Compare(ref, cand *render.Raster, opts Options) (Verdict, error) {
	if err := opts.Validate(); err != nil {
		return Reject(err), err
	}
	if !ref.Valid() || !cand.Valid() {
		err := errors.New(errors.ErrCodeMalformedImage, "raster has invalid dimensions or buffer length")
		return Reject(err), err
	}
	if ref.Width != cand.Width || ref.Height != cand.Height {
		err := errors.New(errors.ErrCodeDimensionMismatch,
			"reference is %dx%d but candidate is %dx%d", ref.Width, ref.Height, cand.Width, cand.Height)
		return Reject(err), err
	}

	differing := CountDiffering(ref.Pix, cand.Pix, opts.PixelDiffThreshold, opts.Channels)
	total := ref.Width * ref.Height * opts.Channels.Len()
	pct := 100 * float64(differing) / float64(total)

	v := Verdict{Accepted: pct <= opts.ToleratedPercent, DiffPercentage: pct}
	if !v.Accepted {
		v.Reason = errors.ErrCodeImagesDiffer
		v.Message = fmt.Sprintf("images differ by %.2f%%", pct)
	}
	return v, nil
}

// CountDiffering counts compared channel values that differ by more than
// threshold. a and b must have equal length, a multiple of four.
func CountDiffering(a, b []byte, threshold uint8, channels ChannelSet) int {
	n := channels.Len()
	count := 0
	for i := 0; i+3 < len(a); i += 4 {
		pa, pb := a[i:i+4:i+4], b[i:i+4:i+4]
		for ch := range n {
			if absDiff(pa[ch], pb[ch]) > threshold {
				count++
			}
		}
	}
	return count
}

func absDiff(x, y uint8) uint8 {
	if x > y {
		return x - y
	}
	return y - x
}
