// Package render executes style programs into raster images.
//
// # Overview
//
// A style is a generative-art procedure. Here every style is a [Program]: a
// pure function of a seed, a palette and output dimensions that draws onto a
// [Canvas]. The [Engine] owns everything around the program:
//
//   - it validates the [Request] (non-empty palette, positive dimensions,
//     randomness within [0, 1]),
//   - it seeds the only random source the program may use from the
//     request seed,
//   - it paints the background with the first palette color,
//   - it enforces a step budget and turns program errors, panics and
//     budget overruns into RENDER_FAILURE.
//
// The resulting [Raster] is a straight-alpha RGBA buffer in row-major order
// with a top-left origin.
//
// # Determinism
//
// Given the same [EngineVersion], program, seed, palette, dimensions and
// randomness, two renders produce byte-identical rasters. Programs cannot
// reach the clock, the network or the file system through the Canvas, and all
// colors come from the palette.
//
//	prog, _ := programs.Lookup("stripes")
//	raster, err := render.NewEngine(0).Render(ctx, prog, render.Request{
//	    Seed:       3934047154,
//	    Palette:    render.Grayscale,
//	    Dim:        render.Dimensions{Width: 1500, Height: 500},
//	    Randomness: 1,
//	})
//
// Concrete programs live in the [programs] subpackage.
package render
