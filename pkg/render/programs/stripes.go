package programs

import "github.com/cod1ng-earth/splicenft/pkg/render"

// stripes draws horizontal bands with slanted, jittered boundaries, walking
// the palette in seed-determined order.
func stripes(c *render.Canvas, in render.Input) error {
	w, h := float64(c.Width()), float64(c.Height())
	bands := 6 + in.Rand.IntN(10)
	order := in.Rand.Perm(c.Colors())
	slant := h / float64(bands) * in.Jitter(1.5)

	y := 0.0
	step := h / float64(bands)
	for i := range bands {
		top0, top1 := y+in.Jitter(step/3), y+slant+in.Jitter(step/3)
		if i == 0 {
			top0, top1 = -step, -step
		}
		c.FillPolygon([]render.Point{
			render.Pt(0, top0),
			render.Pt(w, top1),
			render.Pt(w, h+step),
			render.Pt(0, h+step),
		}, order[i%len(order)])
		y += step
	}

	// thin accent lines along a few boundaries
	for i := range bands / 2 {
		ly := step * float64(1+2*i)
		c.Line(render.Pt(0, ly), render.Pt(w, ly+slant), 1+in.Rand.Float64()*3, order[(i+1)%len(order)])
	}
	return nil
}
