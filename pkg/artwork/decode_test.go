package artwork

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func samplePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	data := samplePNG(200, 100)
	dim, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if dim.WidthPx != 200 || dim.HeightPx != 100 {
		t.Errorf("dimensions = %dx%d, want 200x100", dim.WidthPx, dim.HeightPx)
	}
	if dim.Format != "PNG" {
		t.Errorf("Format = %q, want PNG", dim.Format)
	}
}

func TestDecode_InvalidData(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	if err == nil {
		t.Error("expected an error decoding invalid data")
	}
}

func TestThumbnail_PreservesAspectRatio(t *testing.T) {
	data := samplePNG(400, 200)
	thumb, err := Thumbnail(data, 100)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	dim, err := Decode(thumb)
	if err != nil {
		t.Fatalf("Decode(thumb) error = %v", err)
	}
	if dim.WidthPx != 100 || dim.HeightPx != 50 {
		t.Errorf("thumbnail dimensions = %dx%d, want 100x50", dim.WidthPx, dim.HeightPx)
	}
}
