package programs

import "github.com/cod1ng-earth/splicenft/pkg/render"

// shards tiles the canvas with a jittered triangle grid.
func shards(c *render.Canvas, in render.Input) error {
	w, h := float64(c.Width()), float64(c.Height())
	cols := 8 + in.Rand.IntN(12)
	rows := 3 + in.Rand.IntN(5)
	cw, rh := w/float64(cols), h/float64(rows)

	grid := make([][]render.Point, rows+1)
	for j := range grid {
		grid[j] = make([]render.Point, cols+1)
		for i := range grid[j] {
			// jitter is always drawn so edge points consume the stream too
			jx, jy := in.Jitter(cw/2.5), in.Jitter(rh/2.5)
			x, y := float64(i)*cw, float64(j)*rh
			if i > 0 && i < cols {
				x += jx
			}
			if j > 0 && j < rows {
				y += jy
			}
			grid[j][i] = render.Pt(x, y)
		}
	}

	for j := range rows {
		for i := range cols {
			a, b := grid[j][i], grid[j][i+1]
			d, e := grid[j+1][i], grid[j+1][i+1]
			c.FillPolygon([]render.Point{a, b, e}, in.Rand.IntN(c.Colors()))
			c.FillPolygon([]render.Point{a, e, d}, in.Rand.IntN(c.Colors()))
		}
	}
	return nil
}
