package programs

import (
	"math"

	"github.com/cod1ng-earth/splicenft/pkg/render"
)

// rings draws concentric discs around one or two seeded centers.
func rings(c *render.Canvas, in render.Input) error {
	w, h := float64(c.Width()), float64(c.Height())
	maxR := math.Hypot(w, h) / 2

	centers := 1 + in.Rand.IntN(2)
	for range centers {
		center := render.Pt(in.Rand.Float64()*w, in.Rand.Float64()*h)
		count := 8 + in.Rand.IntN(16)
		gap := maxR / float64(count)
		offset := in.Rand.IntN(c.Colors())

		for i := count; i > 0; i-- {
			r := gap*float64(i) + in.Jitter(gap/2)
			p := render.Pt(center.X+in.Jitter(gap/4), center.Y+in.Jitter(gap/4))
			c.FillCircle(p, r, offset+i)
		}
	}
	return nil
}
