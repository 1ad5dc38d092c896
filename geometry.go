package movenet

import (
	"fmt"
	"image"
	"math"
)

// Box Normalized crop region in [0, 1], in the (y-min, x-min, y-max, x-max) order crop_and_resize expects
type Box struct {
	YMin float32 `json:"y_min"`
	XMin float32 `json:"x_min"`
	YMax float32 `json:"y_max"`
	XMax float32 `json:"x_max"`
}

// CropBox Computes the box which maps a width x height frame onto the model's square input.
//
// Landscape frames keep their full width and get a vertically centered band of height/width;
// portrait frames keep their full height and get a horizontally centered band of width/height.
func CropBox(width, height int) (Box, error) {
	if width <= 0 || height <= 0 {
		return Box{}, NewGeometryError(nil, fmt.Sprintf("frame size must be positive, got %dx%d", width, height))
	}
	w, h := float32(width), float32(height)
	if width >= height {
		half := h / (2 * w)
		return Box{YMin: 0.5 - half, XMin: 0, YMax: 0.5 + half, XMax: 1}, nil
	}
	half := w / (2 * h)
	return Box{YMin: 0, XMin: 0.5 - half, YMax: 1, XMax: 0.5 + half}, nil
}

// Validate Checks the box lies within [0, 1] and is not degenerate
func (b Box) Validate() error {
	for _, v := range b.Values() {
		if math.IsNaN(float64(v)) || v < 0 || v > 1 {
			return NewGeometryError(nil, fmt.Sprintf("box %s has coordinate outside [0, 1]", b))
		}
	}
	if b.YMin >= b.YMax || b.XMin >= b.XMax {
		return NewGeometryError(nil, fmt.Sprintf("box %s is empty", b))
	}
	return nil
}

// Values returns the coordinates in tensor order
func (b Box) Values() [4]float32 {
	return [4]float32{b.YMin, b.XMin, b.YMax, b.XMax}
}

// Rect Projects the box onto a width x height image. The result is clamped to the image bounds.
func (b Box) Rect(width, height int) (image.Rectangle, error) {
	if err := b.Validate(); err != nil {
		return image.Rectangle{}, err
	}
	if width <= 0 || height <= 0 {
		return image.Rectangle{}, NewGeometryError(nil, fmt.Sprintf("image size must be positive, got %dx%d", width, height))
	}
	r := image.Rect(
		int(math.Round(float64(b.XMin)*float64(width))),
		int(math.Round(float64(b.YMin)*float64(height))),
		int(math.Round(float64(b.XMax)*float64(width))),
		int(math.Round(float64(b.YMax)*float64(height))),
	)
	FixRect(&r, width, height)
	if r.Empty() {
		return image.Rectangle{}, NewGeometryError(nil, fmt.Sprintf("box %s covers no pixel of %dx%d image", b, width, height))
	}
	return r, nil
}

func (b Box) String() string {
	return fmt.Sprintf("Box{y: [%.4f, %.4f], x: [%.4f, %.4f]}", b.YMin, b.YMax, b.XMin, b.XMax)
}
