package tfmodel

import (
	"fmt"

	tf "github.com/tensorflow/tensorflow/tensorflow/go"
	"github.com/tensorflow/tensorflow/tensorflow/go/op"

	"github.com/genert/movenet"
)

// GraphPreprocessor Holds preprocessing graph and its input/output nodes.
//
// The graph is split in three stages (decode, batch+crop+resize, cast), each run on its own,
// so a failure is attributed to the step that caused it.
type GraphPreprocessor struct {
	session *tf.Session
	size    int

	encoded    tf.Output // scalar string
	decodeJPEG tf.Output // uint8 [h, w, 3]
	decodePNG  tf.Output // uint8 [h, w, 3]

	image   tf.Output // uint8 [h, w, 3]
	boxes   tf.Output // float [1, 4]
	cropped tf.Output // float [1, size, size, 3]

	pixels tf.Output // float [1, size, size, 3]
	cast   tf.Output // int32 [1, size, size, 3]
}

// NewGraphPreprocessor Builds the preprocessing graph for a size x size model input
func NewGraphPreprocessor(size int) (*GraphPreprocessor, error) {
	if size <= 0 {
		return nil, movenet.NewSetupError(nil, fmt.Sprintf("input size must be positive, got %d", size))
	}

	p := &GraphPreprocessor{size: size}
	s := op.NewScope()

	p.encoded = op.Placeholder(s.SubScope("encoded"), tf.String)
	p.decodeJPEG = op.DecodeJpeg(s.SubScope("jpeg"), p.encoded, op.DecodeJpegChannels(movenet.Channels))
	p.decodePNG = op.DecodePng(s.SubScope("png"), p.encoded, op.DecodePngChannels(movenet.Channels))

	p.image = op.Placeholder(s.SubScope("image"), tf.Uint8)
	p.boxes = op.Placeholder(s.SubScope("boxes"), tf.Float)
	// Create a batch containing a single image, then crop it with box 0
	batch := op.ExpandDims(s, p.image, op.Const(s.SubScope("batch_dim"), int32(0)))
	p.cropped = op.CropAndResize(s, batch, p.boxes,
		op.Const(s.SubScope("box_ind"), []int32{0}),
		op.Const(s.SubScope("crop_size"), []int32{int32(size), int32(size)}))

	p.pixels = op.Placeholder(s.SubScope("pixels"), tf.Float)
	p.cast = op.Cast(s, p.pixels, tf.Int32)

	graph, err := s.Finalize()
	if err != nil {
		return nil, movenet.NewSetupError(err, "Can't build preprocessing graph")
	}
	if p.session, err = tf.NewSession(graph, nil); err != nil {
		return nil, movenet.NewSetupError(err, "Can't create preprocessing session")
	}
	return p, nil
}

// Preprocess Decodes frame, crops it through box and resizes it to the model input, as int32 pixels
func (p *GraphPreprocessor) Preprocess(frame *movenet.Frame, box movenet.Box) (*movenet.Input, error) {
	decoded, err := p.decode(frame)
	if err != nil {
		return nil, err
	}

	cropped, err := p.crop(decoded, box)
	if err != nil {
		return nil, err
	}

	cast, err := p.session.Run(map[tf.Output]*tf.Tensor{p.pixels: cropped}, []tf.Output{p.cast}, nil)
	if err != nil {
		return nil, movenet.NewCastError(err, "Can't cast pixels to int32")
	}
	shape, data, err := int32Values(cast[0])
	if err != nil {
		return nil, movenet.NewCastError(err, "unexpected cast result")
	}

	input := &movenet.Input{Shape: shape, Data: data}
	if err := movenet.CheckInput(input, p.size); err != nil {
		return nil, movenet.NewGeometryError(err, "crop produced wrong input size")
	}
	return input, nil
}

func (p *GraphPreprocessor) decode(frame *movenet.Frame) (*tf.Tensor, error) {
	var decoder tf.Output
	switch frame.Format {
	case movenet.FormatJPEG:
		decoder = p.decodeJPEG
	case movenet.FormatPNG:
		decoder = p.decodePNG
	default:
		return nil, movenet.NewDecodeError(nil, fmt.Sprintf("unsupported frame format %q", frame.Format))
	}
	if len(frame.Data) == 0 {
		return nil, movenet.NewDecodeError(nil, "empty frame payload")
	}

	// A Go string carries arbitrary bytes, this is the scalar string tensor the decode ops expect
	encoded, err := tf.NewTensor(string(frame.Data))
	if err != nil {
		return nil, movenet.NewDecodeError(err, "Can't wrap frame payload")
	}
	decoded, err := p.session.Run(map[tf.Output]*tf.Tensor{p.encoded: encoded}, []tf.Output{decoder}, nil)
	if err != nil {
		return nil, movenet.NewDecodeError(err, fmt.Sprintf("Can't decode %s frame", frame.Format))
	}
	return decoded[0], nil
}

func (p *GraphPreprocessor) crop(decoded *tf.Tensor, box movenet.Box) (*tf.Tensor, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if shape := decoded.Shape(); len(shape) != 3 || shape[0] == 0 || shape[1] == 0 {
		return nil, movenet.NewGeometryError(nil, fmt.Sprintf("decoded image has shape %v", shape))
	}

	values := box.Values()
	boxes, err := tf.NewTensor([][]float32{values[:]})
	if err != nil {
		return nil, movenet.NewGeometryError(err, "Can't build box tensor")
	}
	cropped, err := p.session.Run(
		map[tf.Output]*tf.Tensor{p.image: decoded, p.boxes: boxes},
		[]tf.Output{p.cropped},
		nil)
	if err != nil {
		return nil, movenet.NewGeometryError(err, "Can't crop and resize frame")
	}
	return cropped[0], nil
}

// Close releases the preprocessing session
func (p *GraphPreprocessor) Close() error {
	return p.session.Close()
}
