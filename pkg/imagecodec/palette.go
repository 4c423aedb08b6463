package imagecodec

import (
	"cmp"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/render"
)

// DefaultPaletteColors is the palette size ExtractPalette callers use when
// the user does not pick one.
const DefaultPaletteColors = 8

const (
	maxSamples  = 1 << 16
	maxKMeans   = 20
	convergence = 0.5 // largest centroid move, in ΔE
)

type labPoint struct {
	l, a, b float64
	weight  float64
}

func (p labPoint) dist2(q labPoint) float64 {
	dl, da, db := p.l-q.l, p.a-q.a, p.b-q.b
	return dl*dl + da*da + db*db
}

// ExtractPalette clusters the opaque colors of r into at most k colors using
// k-means in CIE L*a*b* space. The result is ordered by cluster size, largest
// first, and is identical for identical rasters.
//
// Pixels with alpha below 128 are ignored. Images with fewer than k distinct
// colors yield one entry per color.
func ExtractPalette(r *render.Raster, k int) (render.Palette, error) {
	if k < 1 || k > render.MaxPaletteSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "palette size must be within [1, %d], got %d", render.MaxPaletteSize, k)
	}
	if r == nil || !r.Valid() {
		return nil, errors.New(errors.ErrCodeMalformedImage, "raster has invalid dimensions or buffer length")
	}

	points := histogram(r)
	if len(points) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedImage, "image has no opaque pixels")
	}

	centroids := seedCentroids(points, k)
	weights := make([]float64, len(centroids))
	for range maxKMeans {
		sums := make([]labPoint, len(centroids))
		for _, p := range points {
			i := nearest(centroids, p)
			sums[i].l += p.l * p.weight
			sums[i].a += p.a * p.weight
			sums[i].b += p.b * p.weight
			sums[i].weight += p.weight
		}
		moved := 0.0
		for i, s := range sums {
			weights[i] = s.weight
			if s.weight == 0 {
				continue
			}
			next := labPoint{l: s.l / s.weight, a: s.a / s.weight, b: s.b / s.weight}
			moved = math.Max(moved, math.Sqrt(next.dist2(centroids[i])))
			centroids[i] = next
		}
		if moved < convergence {
			break
		}
	}

	order := make([]int, 0, len(centroids))
	for i := range centroids {
		if weights[i] > 0 {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return cmp.Compare(weights[y], weights[x])
	})

	p := make(render.Palette, 0, len(order))
	for _, i := range order {
		c := centroids[i]
		cr, cg, cb := colorful.Lab(c.l, c.a, c.b).Clamped().RGB255()
		p = append(p, render.RGB{cr, cg, cb})
	}
	return p, nil
}

// histogram returns the distinct opaque colors of r in L*a*b*, weighted by
// frequency and sorted by weight, then by color. Large images are sampled
// on a fixed stride.
func histogram(r *render.Raster) []labPoint {
	n := r.Width * r.Height
	stride := max(1, n/maxSamples)

	counts := make(map[render.RGB]int)
	for i := 0; i < n; i += stride {
		px := r.Pix[i*4 : i*4+4]
		if px[3] < 128 {
			continue
		}
		counts[render.RGB{px[0], px[1], px[2]}]++
	}

	colors := make([]render.RGB, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	slices.SortFunc(colors, func(x, y render.RGB) int {
		if d := cmp.Compare(counts[y], counts[x]); d != 0 {
			return d
		}
		return slices.Compare(x[:], y[:])
	})

	points := make([]labPoint, len(colors))
	for i, c := range colors {
		l, a, b := colorful.Color{
			R: float64(c[0]) / 255,
			G: float64(c[1]) / 255,
			B: float64(c[2]) / 255,
		}.Lab()
		points[i] = labPoint{l: l, a: a, b: b, weight: float64(counts[c])}
	}
	return points
}

// seedCentroids starts from the most frequent color and repeatedly adds the
// point farthest from every chosen centroid, stopping early once all points
// coincide with one.
func seedCentroids(points []labPoint, k int) []labPoint {
	centroids := []labPoint{points[0]}
	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = p.dist2(points[0])
	}
	for len(centroids) < k {
		far, best := -1, 0.0
		for i, d := range dist {
			if d > best {
				far, best = i, d
			}
		}
		if far < 0 {
			break
		}
		c := points[far]
		centroids = append(centroids, c)
		for i, p := range points {
			dist[i] = math.Min(dist[i], p.dist2(c))
		}
	}
	return centroids
}

func nearest(centroids []labPoint, p labPoint) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centroids {
		if d := p.dist2(c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
