package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/imagecodec"
	"github.com/cod1ng-earth/splicenft/pkg/pipeline"
	"github.com/cod1ng-earth/splicenft/pkg/render"
)

// renderFlags are the options of the render command.
type renderFlags struct {
	network    uint64
	collection string
	token      string
	seed       int64
	palette    []string
	imagePath  string
	colors     int
	width      int
	height     int
	randomness float64
	output     string
	publish    bool
	refresh    bool
}

func (c *CLI) renderCommand() *cobra.Command {
	f := renderFlags{seed: -1, randomness: -1}
	cmd := &cobra.Command{
		Use:   "render <style-id>",
		Short: "Render a style to a PNG file",
		Long: `Render a style deterministically.

With --collection and --token the seed is derived from the token, which
produces the image a mint of that token must carry. With --seed the seed is
used as given. With neither a generic preview is rendered.`,
		Example: `  splicer render 2 --collection 0x231e5BA16e2C9BE8918cf67d477052f3F6C35036 --token 1
  splicer render 1 --seed 1234 --palette '#000000,#ffffff' -o preview.png
  splicer render 3 --seed 7 --palette-from origin.jpg --colors 6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			styleID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "style id %q is not a number", args[0])
			}

			a, err := c.newApp(ctx, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			opts, err := f.options(a, styleID)
			if err != nil {
				return err
			}
			opts.Logger = logger

			sp := newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering style %d", styleID)).Start()
			res, err := a.runner.Execute(ctx, opts)
			sp.Stop()
			if err != nil {
				return err
			}

			out := f.output
			if out == "" {
				out = fmt.Sprintf("splice-%d-%d-%d.png", res.Style.Network, res.Style.ID, res.Seed)
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
				}
			}
			if err := os.WriteFile(out, res.PNG, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", out)
			}

			c.out.success("Rendered %s", res.Style.Name)
			c.out.renderStats(res.Request.Dim, res.Seed, res.CacheInfo.RenderHit)
			c.out.detail("cid %s", res.CID)
			if res.Published && a.cfg.Storage.Dir != "" {
				c.out.detail("published to %s", a.cfg.Storage.Dir)
			}
			c.out.file(out)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Uint64VarP(&f.network, "network", "n", 0, "network id (default: first configured)")
	fl.StringVar(&f.collection, "collection", "", "collection address of the token")
	fl.StringVar(&f.token, "token", "", "token id (decimal or 0x hex)")
	fl.Int64Var(&f.seed, "seed", -1, "explicit 32-bit seed")
	fl.StringSliceVar(&f.palette, "palette", nil, "comma-separated hex colors")
	fl.StringVar(&f.imagePath, "palette-from", "", "extract the palette from an image file")
	fl.IntVar(&f.colors, "colors", imagecodec.DefaultPaletteColors, "number of colors for --palette-from")
	fl.IntVar(&f.width, "width", 0, "image width (default from config)")
	fl.IntVar(&f.height, "height", 0, "image height (default from config)")
	fl.Float64Var(&f.randomness, "randomness", -1, "randomness in [0, 1] (default from config)")
	fl.StringVarP(&f.output, "output", "o", "", "output file")
	fl.BoolVar(&f.publish, "publish", false, "put the PNG into the configured store")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore cached renders")
	cmd.MarkFlagsMutuallyExclusive("palette", "palette-from")
	return cmd
}

func (f renderFlags) options(a *app, styleID uint64) (pipeline.Options, error) {
	opts := pipeline.Options{
		Network:    f.network,
		StyleID:    styleID,
		Collection: f.collection,
		TokenID:    f.token,
		Dim:        a.cfg.Dim(),
		Publish:    f.publish || a.cfg.Render.Publish,
		Refresh:    f.refresh,
	}
	if opts.Network == 0 {
		opts.Network = a.cfg.Networks[0].ID
	}
	if f.width > 0 {
		opts.Dim.Width = f.width
	}
	if f.height > 0 {
		opts.Dim.Height = f.height
	}

	randomness := a.cfg.Render.Randomness
	if f.randomness >= 0 {
		randomness = f.randomness
	}
	opts.Randomness = &randomness

	if f.seed >= 0 {
		if f.seed > int64(^uint32(0)) {
			return opts, errors.New(errors.ErrCodeInvalidInput, "seed %d does not fit in 32 bits", f.seed)
		}
		s := uint32(f.seed)
		opts.Seed = &s
	}
	if len(f.palette) > 0 {
		p, err := render.ParsePalette(f.palette)
		if err != nil {
			return opts, err
		}
		opts.Palette = p
	}
	if f.imagePath != "" {
		p, err := paletteFromFile(f.imagePath, f.colors)
		if err != nil {
			return opts, err
		}
		opts.Palette = p
	}
	return opts, nil
}

func paletteFromFile(path string, k int) (render.Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	r, err := imagecodec.Decode(data)
	if err != nil {
		return nil, err
	}
	return imagecodec.ExtractPalette(r, k)
}
