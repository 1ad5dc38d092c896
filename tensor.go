package movenet

import (
	"context"
	"fmt"
	"io"
)

// Pixel channels of the model input (RGB)
const Channels = 3

// Input Preprocessed model input: int32 pixels laid out as [1, size, size, 3]
type Input struct {
	Shape []int64
	Data  []int32
}

// NewInput Allocates a zeroed input of size x size
func NewInput(size int) *Input {
	return &Input{
		Shape: []int64{1, int64(size), int64(size), Channels},
		Data:  make([]int32, size*size*Channels),
	}
}

// Output Host copy of a float model output, row-major
type Output struct {
	Shape []int64
	Data  []float32
}

// Preprocessor Turns an encoded frame into the model input
type Preprocessor interface {
	Preprocess(frame *Frame, box Box) (*Input, error)
	io.Closer
}

// Session Runs one forward pass of the model
type Session interface {
	Run(ctx context.Context, input *Input) (*Output, error)
	io.Closer
}

// ShapeSize returns the number of elements of shape, or -1 if any dimension is negative
func ShapeSize(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		if d < 0 {
			return -1
		}
		n *= d
	}
	return n
}

// CheckInput Verifies input has shape [1, size, size, 3] and a matching data length
func CheckInput(input *Input, size int) error {
	if input == nil {
		return fmt.Errorf("nil input")
	}
	want := []int64{1, int64(size), int64(size), Channels}
	if len(input.Shape) != len(want) {
		return fmt.Errorf("input rank %d, want %d", len(input.Shape), len(want))
	}
	for i := range want {
		if input.Shape[i] != want[i] {
			return fmt.Errorf("input shape %v, want %v", input.Shape, want)
		}
	}
	if int64(len(input.Data)) != ShapeSize(want) {
		return fmt.Errorf("input holds %d values, shape %v needs %d", len(input.Data), want, ShapeSize(want))
	}
	return nil
}
