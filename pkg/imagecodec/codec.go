// Package imagecodec converts between rasters and encoded image bytes.
//
// Rasters are always encoded as PNG, so Decode(Encode(r)) returns the
// original pixels. Decode also accepts JPEG and GIF bytes, since submitted
// candidates may have been through a lossy pipeline; those are converted to
// straight-alpha RGBA like any other input.
package imagecodec

import (
	"bytes"
	"image"
	"image/png"

	// candidate images may arrive in any of these formats
	_ "image/gif"
	_ "image/jpeg"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/render"
)

// ContentType is the media type produced by Encode.
const ContentType = "image/png"

var encoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// Encode writes r as PNG.
func Encode(r *render.Raster) ([]byte, error) {
	if !r.Valid() {
		return nil, errors.New(errors.ErrCodeMalformedImage, "raster has invalid dimensions or buffer length")
	}
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, r.Image()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// Decode parses image bytes into a raster.
func Decode(data []byte) (*render.Raster, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedImage, "empty image data")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedImage, err, "unrecognized image")
	}
	if err := checkSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedImage, err, "decode %s", format)
	}
	r := render.FromImage(img)
	if !r.Valid() {
		return nil, errors.New(errors.ErrCodeMalformedImage, "decoded %s has no pixels", format)
	}
	return r, nil
}

// Format sniffs the image format name ("png", "jpeg", "gif").
func Format(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMalformedImage, err, "unrecognized image")
	}
	return format, nil
}

func checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeMalformedImage, "image has non-positive dimensions %dx%d", w, h)
	}
	if w > errors.MaxDimension || h > errors.MaxDimension {
		return errors.New(errors.ErrCodeMalformedImage, "image dimensions %dx%d exceed %d", w, h, errors.MaxDimension)
	}
	return nil
}
