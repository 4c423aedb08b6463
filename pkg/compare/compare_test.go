package compare

import (
	"image/color"
	"math"
	"testing"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/render"
)

func solid(w, h int, c color.NRGBA) *render.Raster {
	r := render.NewRaster(w, h)
	for y := range h {
		for x := range w {
			r.Set(x, y, c)
		}
	}
	return r
}

// perturb changes the first n pixels of r by delta on the red channel.
func perturb(r *render.Raster, n int, delta uint8) *render.Raster {
	out := r.Clone()
	for i := range n {
		out.Pix[i*4] += delta
	}
	return out
}

func TestCompare_Identical(t *testing.T) {
	ref := solid(10, 10, color.NRGBA{100, 100, 100, 255})
	v, err := Compare(ref, ref.Clone(), DefaultOptions())
	if err != nil {
		t.Fatalf("Compare() failed: %v", err)
	}
	if !v.Accepted || v.DiffPercentage != 0 || v.Reason != "" {
		t.Errorf("got %+v, want accepted with 0%%", v)
	}
}

// perturbRGB changes the first n pixels by delta on red, green and blue.
func perturbRGB(r *render.Raster, n int, delta uint8) *render.Raster {
	out := r.Clone()
	for i := range n {
		for ch := range 3 {
			out.Pix[i*4+ch] += delta
		}
	}
	return out
}

func TestCompare_Tolerance(t *testing.T) {
	ref := solid(10, 10, color.NRGBA{100, 100, 100, 255})

	tests := []struct {
		name     string
		cand     *render.Raster
		channels ChannelSet
		accepted bool
		pct      float64
	}{
		{"below threshold", perturb(ref, 100, 10), RGBA, true, 0},
		{"red of three pixels", perturb(ref, 3, 11), RGBA, true, 0.75},
		{"at tolerance", perturb(ref, 8, 11), RGBA, true, 2},
		{"above tolerance", perturb(ref, 9, 11), RGBA, false, 2.25},
		{"three channels of three pixels", perturbRGB(ref, 3, 11), RGBA, false, 2.25},
		{"large change", perturb(ref, 50, 120), RGBA, false, 12.5},
		{"rgb at tolerance", perturb(ref, 6, 11), RGB, true, 2},
		{"rgb above tolerance", perturb(ref, 7, 11), RGB, false, 7.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Channels = tt.channels
			v, err := Compare(ref, tt.cand, opts)
			if err != nil {
				t.Fatalf("Compare() failed: %v", err)
			}
			if v.Accepted != tt.accepted {
				t.Errorf("Accepted = %v, want %v", v.Accepted, tt.accepted)
			}
			if math.Abs(v.DiffPercentage-tt.pct) > 1e-9 {
				t.Errorf("DiffPercentage = %v, want %v", v.DiffPercentage, tt.pct)
			}
			if !tt.accepted && v.Reason != errors.ErrCodeImagesDiffer {
				t.Errorf("Reason = %q, want IMAGES_DIFFER", v.Reason)
			}
		})
	}
}

func TestCountDiffering(t *testing.T) {
	a := []byte{10, 10, 10, 10, 10, 10, 10, 10}
	b := []byte{90, 90, 90, 90, 10, 10, 10, 90}

	if got := CountDiffering(a, b, 10, RGBA); got != 5 {
		t.Errorf("RGBA count = %d, want 5", got)
	}
	if got := CountDiffering(a, b, 10, RGB); got != 3 {
		t.Errorf("RGB count = %d, want 3", got)
	}
}

func TestCompare_Message(t *testing.T) {
	ref := solid(10, 10, color.NRGBA{0, 0, 0, 255})
	v, _ := Compare(ref, perturb(ref, 25, 200), DefaultOptions())
	if v.Message != "images differ by 6.25%" {
		t.Errorf("Message = %q", v.Message)
	}
}

func TestCompare_DimensionMismatch(t *testing.T) {
	ref := solid(1500, 500, color.NRGBA{A: 255})
	cand := solid(800, 800, color.NRGBA{A: 255})

	v, err := Compare(ref, cand, DefaultOptions())
	if !errors.Is(err, errors.ErrCodeDimensionMismatch) {
		t.Fatalf("error = %v, want DIMENSION_MISMATCH", err)
	}
	if v.Accepted || v.Reason != errors.ErrCodeDimensionMismatch {
		t.Errorf("verdict = %+v, want rejected DIMENSION_MISMATCH", v)
	}
}

func TestCompare_Channels(t *testing.T) {
	ref := solid(4, 4, color.NRGBA{50, 50, 50, 255})
	cand := solid(4, 4, color.NRGBA{50, 50, 50, 0})

	v, _ := Compare(ref, cand, DefaultOptions())
	if v.Accepted {
		t.Error("RGBA comparison should reject an alpha-only difference")
	}

	opts := DefaultOptions()
	opts.Channels = RGB
	v, _ = Compare(ref, cand, opts)
	if !v.Accepted {
		t.Errorf("RGB comparison should ignore alpha, got %+v", v)
	}
}

func TestCompare_Symmetric(t *testing.T) {
	a := solid(8, 8, color.NRGBA{10, 20, 30, 255})
	b := perturb(a, 9, 40)

	v1, _ := Compare(a, b, DefaultOptions())
	v2, _ := Compare(b, a, DefaultOptions())
	if v1 != v2 {
		t.Errorf("Compare(a,b) = %+v, Compare(b,a) = %+v", v1, v2)
	}
}

func TestParseChannelSet(t *testing.T) {
	tests := []struct {
		in   string
		want ChannelSet
		ok   bool
	}{
		{"", RGBA, true},
		{"rgba", RGBA, true},
		{"RGB", RGB, true},
		{"cmyk", RGBA, false},
	}
	for _, tt := range tests {
		got, err := ParseChannelSet(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseChannelSet(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestOptions_Validate(t *testing.T) {
	for _, pct := range []float64{-1, 101, math.NaN()} {
		opts := DefaultOptions()
		opts.ToleratedPercent = pct
		if err := opts.Validate(); err == nil {
			t.Errorf("Validate() accepted tolerance %v", pct)
		}
	}
}
