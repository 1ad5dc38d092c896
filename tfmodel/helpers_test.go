package tfmodel

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/genert/movenet"
)

func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// solidFrame encodes a lossless single color frame
func solidFrame(t *testing.T, width, height int, c color.RGBA) *movenet.Frame {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(width, height, c)); err != nil {
		t.Fatal(err)
	}
	return &movenet.Frame{Data: buf.Bytes(), Width: width, Height: height, Format: movenet.FormatPNG}
}

// gradientFrame encodes a JPEG with varying content, to exercise interpolation
func gradientFrame(t *testing.T, width, height int) *movenet.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return &movenet.Frame{Data: buf.Bytes(), Width: width, Height: height, Format: movenet.FormatJPEG}
}

func assertSolidInput(t *testing.T, input *movenet.Input, size int, rgb [3]int32) {
	t.Helper()
	if err := movenet.CheckInput(input, size); err != nil {
		t.Fatalf("unexpected input: %v", err)
	}
	for i, v := range input.Data {
		if want := rgb[i%3]; v != want {
			t.Fatalf("pixel value %d at offset %d (channel %d), want %d", v, i, i%3, want)
		}
	}
}

func assertSameInput(t *testing.T, a, b *movenet.Input) {
	t.Helper()
	if len(a.Data) != len(b.Data) {
		t.Fatalf("inputs differ in length: %d vs %d", len(a.Data), len(b.Data))
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("inputs differ at offset %d: %d vs %d", i, a.Data[i], b.Data[i])
		}
	}
}
