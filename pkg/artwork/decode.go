// Package artwork decodes raw PNG/JPEG bytes to recover pixel
// dimensions when the resolver collaborator's ResolvedItem does not
// already carry artwork_width_px / artwork_height_px — the defensive
// path exercised by the offline "pack" CLI fixture, which reads
// artwork straight off disk rather than through a resolver.
package artwork

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"

	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
	"golang.org/x/image/draw"
)

// Dimensions is the decoded pixel size and detected format of a raster.
type Dimensions struct {
	WidthPx  int
	HeightPx int
	Format   string
}

// Decode inspects data's bounds and format without fully decoding
// pixels into memory beyond what image.DecodeConfig needs.
func Decode(data []byte) (Dimensions, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, apperrors.Wrap(apperrors.CodeUnsupportedFormat, err, "decoding artwork bounds")
	}
	return Dimensions{
		WidthPx:  cfg.Width,
		HeightPx: cfg.Height,
		Format:   normalizeFormat(format),
	}, nil
}

// normalizeFormat maps the Go image package's lowercase format names
// ("png", "jpeg") onto the core's uppercase format vocabulary.
func normalizeFormat(format string) string {
	switch format {
	case "png":
		return "PNG"
	case "jpeg":
		return "JPEG"
	default:
		return format
	}
}

// Thumbnail decodes data and returns a PNG-encoded thumbnail no wider
// or taller than maxSide, preserving aspect ratio, using
// high-quality Catmull-Rom scaling. Used by the "diagnose" CLI command
// to render a quick preview of an item's source artwork.
func Thumbnail(data []byte, maxSide int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnsupportedFormat, err, "decoding artwork for thumbnail")
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := float64(maxSide) / float64(w)
	if hScale := float64(maxSide) / float64(h); hScale < scale {
		scale = hScale
	}
	dstW, dstH := int(float64(w)*scale), int(float64(h)*scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
