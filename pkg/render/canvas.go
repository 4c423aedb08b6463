package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Point is a position in canvas coordinates. (0, 0) is the top-left corner.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// circleK is the cubic Bézier control distance for a quarter circle.
const circleK = 0.5522847498

// Canvas is the only drawing surface a program sees. Colors are addressed by
// palette index (taken modulo the palette length) and every shape is opaque,
// so the canvas never holds a translucent pixel.
type Canvas struct {
	img     *image.RGBA
	raster  *vector.Rasterizer
	palette Palette
	srcs    []*image.Uniform

	steps    int
	maxSteps int
	overrun  bool
}

func newCanvas(dim Dimensions, palette Palette, maxSteps int) *Canvas {
	srcs := make([]*image.Uniform, len(palette))
	for i, c := range palette {
		srcs[i] = image.NewUniform(color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff})
	}
	return &Canvas{
		img:      image.NewRGBA(image.Rect(0, 0, dim.Width, dim.Height)),
		raster:   vector.NewRasterizer(dim.Width, dim.Height),
		palette:  palette,
		srcs:     srcs,
		maxSteps: maxSteps,
	}
}

// Width of the canvas in pixels.
func (c *Canvas) Width() int { return c.img.Rect.Dx() }

// Height of the canvas in pixels.
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Colors returns the number of palette colors.
func (c *Canvas) Colors() int { return len(c.palette) }

// Steps returns the number of budget units consumed so far.
func (c *Canvas) Steps() int { return c.steps }

// Exhausted reports whether the step budget has been exceeded. Once it has,
// every drawing operation is a no-op.
func (c *Canvas) Exhausted() bool { return c.overrun }

func (c *Canvas) spend(n int) bool {
	if c.overrun {
		return false
	}
	c.steps += n
	if c.maxSteps > 0 && c.steps > c.maxSteps {
		c.overrun = true
		return false
	}
	return true
}

func (c *Canvas) src(idx int) *image.Uniform {
	n := len(c.srcs)
	return c.srcs[((idx%n)+n)%n]
}

// Fill paints the whole canvas.
func (c *Canvas) Fill(colorIdx int) {
	if !c.spend(1) {
		return
	}
	draw.Draw(c.img, c.img.Rect, c.src(colorIdx), image.Point{}, draw.Src)
}

// FillRect paints the axis-aligned rectangle [x0,x1)×[y0,y1), clipped to the
// canvas. Coordinates are rounded to whole pixels.
func (c *Canvas) FillRect(x0, y0, x1, y1 float64, colorIdx int) {
	if !c.spend(1) {
		return
	}
	r := image.Rect(round(x0), round(y0), round(x1), round(y1)).Intersect(c.img.Rect)
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, c.src(colorIdx), image.Point{}, draw.Src)
}

// FillPolygon fills the closed polygon through pts using the non-zero
// winding rule with anti-aliased edges. Each vertex costs one step.
func (c *Canvas) FillPolygon(pts []Point, colorIdx int) {
	if len(pts) < 3 || !c.spend(len(pts)) {
		return
	}
	c.raster.Reset(c.Width(), c.Height())
	c.raster.MoveTo(f32(pts[0].X), f32(pts[0].Y))
	for _, p := range pts[1:] {
		c.raster.LineTo(f32(p.X), f32(p.Y))
	}
	c.raster.ClosePath()
	c.composite(colorIdx)
}

// FillCircle fills a disc approximated by four cubic Bézier segments.
func (c *Canvas) FillCircle(center Point, radius float64, colorIdx int) {
	if radius <= 0 || !c.spend(1) {
		return
	}
	cx, cy, r := f32(center.X), f32(center.Y), f32(radius)
	k := float32(circleK) * r

	c.raster.Reset(c.Width(), c.Height())
	c.raster.MoveTo(cx, cy-r)
	c.raster.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	c.raster.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	c.raster.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	c.raster.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	c.raster.ClosePath()
	c.composite(colorIdx)
}

// Line strokes a straight segment of the given width.
func (c *Canvas) Line(a, b Point, width float64, colorIdx int) {
	if width <= 0 || !c.spend(1) {
		return
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2

	c.raster.Reset(c.Width(), c.Height())
	c.raster.MoveTo(f32(a.X+nx), f32(a.Y+ny))
	c.raster.LineTo(f32(b.X+nx), f32(b.Y+ny))
	c.raster.LineTo(f32(b.X-nx), f32(b.Y-ny))
	c.raster.LineTo(f32(a.X-nx), f32(a.Y-ny))
	c.raster.ClosePath()
	c.composite(colorIdx)
}

func (c *Canvas) composite(colorIdx int) {
	c.raster.DrawOp = draw.Over
	c.raster.Draw(c.img, c.img.Rect, c.src(colorIdx), image.Point{})
}

func round(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(-math.MaxInt32, math.Min(math.MaxInt32, v))))
}

// f32 clamps v into a range the rasterizer accepts; NaN collapses to 0.
func f32(v float64) float32 {
	const lim = 1 << 16
	switch {
	case math.IsNaN(v):
		return 0
	case v > lim:
		return lim
	case v < -lim:
		return -lim
	}
	return float32(v)
}
