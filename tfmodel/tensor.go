package tfmodel

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	tf "github.com/tensorflow/tensorflow/tensorflow/go"

	"github.com/genert/movenet"
)

// TensorFlow lays tensor contents out in host byte order
var hostOrder = binary.LittleEndian

// int32Tensor Converts flat row-major data into a tensor of the given shape
func int32Tensor(shape []int64, data []int32) (*tf.Tensor, error) {
	if int64(len(data)) != movenet.ShapeSize(shape) {
		return nil, fmt.Errorf("%d values don't fill shape %v", len(data), shape)
	}
	var buf bytes.Buffer
	buf.Grow(4 * len(data))
	if err := binary.Write(&buf, hostOrder, data); err != nil {
		return nil, errors.Wrap(err, "Can't serialize tensor")
	}
	return tf.ReadTensor(tf.Int32, shape, &buf)
}

func float32Values(t *tf.Tensor) ([]int64, []float32, error) {
	if t.DataType() != tf.Float {
		return nil, nil, fmt.Errorf("tensor dtype %v, want float", t.DataType())
	}
	shape := t.Shape()
	n := movenet.ShapeSize(shape)
	if n < 0 {
		return nil, nil, fmt.Errorf("tensor has unknown shape %v", shape)
	}
	var buf bytes.Buffer
	if _, err := t.WriteContentsTo(&buf); err != nil {
		return nil, nil, errors.Wrap(err, "Can't read tensor contents")
	}
	data := make([]float32, n)
	if err := binary.Read(&buf, hostOrder, data); err != nil {
		return nil, nil, errors.Wrap(err, "Can't deserialize tensor")
	}
	return shape, data, nil
}

func int32Values(t *tf.Tensor) ([]int64, []int32, error) {
	if t.DataType() != tf.Int32 {
		return nil, nil, fmt.Errorf("tensor dtype %v, want int32", t.DataType())
	}
	shape := t.Shape()
	n := movenet.ShapeSize(shape)
	if n < 0 {
		return nil, nil, fmt.Errorf("tensor has unknown shape %v", shape)
	}
	var buf bytes.Buffer
	if _, err := t.WriteContentsTo(&buf); err != nil {
		return nil, nil, errors.Wrap(err, "Can't read tensor contents")
	}
	data := make([]int32, n)
	if err := binary.Read(&buf, hostOrder, data); err != nil {
		return nil, nil, errors.Wrap(err, "Can't deserialize tensor")
	}
	return shape, data, nil
}
