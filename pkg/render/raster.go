package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
)

// Channels is the number of bytes per pixel in a Raster.
const Channels = 4

// Raster is a width×height grid of straight-alpha RGBA pixels in row-major
// order with the origin at the top left. len(Pix) == Width*Height*4.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// NewRaster allocates a transparent raster.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*Channels),
	}
}

// Valid reports whether the buffer length matches the dimensions.
func (r *Raster) Valid() bool {
	return r != nil && r.Width > 0 && r.Height > 0 && len(r.Pix) == r.Width*r.Height*Channels
}

// Offset returns the index of the first byte of pixel (x, y).
func (r *Raster) Offset(x, y int) int {
	return (y*r.Width + x) * Channels
}

// At returns the pixel at (x, y).
func (r *Raster) At(x, y int) color.NRGBA {
	i := r.Offset(x, y)
	p := r.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set writes the pixel at (x, y).
func (r *Raster) Set(x, y int, c color.NRGBA) {
	i := r.Offset(x, y)
	p := r.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// Equal reports whether both rasters have the same size and identical pixels.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Width == o.Width && r.Height == o.Height && bytes.Equal(r.Pix, o.Pix)
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	return &Raster{Width: r.Width, Height: r.Height, Pix: bytes.Clone(r.Pix)}
}

// Image returns an *image.NRGBA sharing the raster's pixel memory.
func (r *Raster) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * Channels,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// FromImage converts any image into a Raster, translating its bounds so the
// result starts at (0, 0).
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Stride == b.Dx()*Channels && n.Rect.Min == (image.Point{}) {
		return &Raster{Width: b.Dx(), Height: b.Dy(), Pix: bytes.Clone(n.Pix[:b.Dy()*n.Stride])}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Raster{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}
