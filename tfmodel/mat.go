package tfmodel

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/genert/movenet"
)

// MatPreprocessor Prepares model input with OpenCV instead of a TensorFlow graph.
// Every intermediate gocv.Mat is released before Preprocess returns, whatever the outcome.
type MatPreprocessor struct {
	size int
}

// NewMatPreprocessor Creates an OpenCV preprocessor for a size x size model input
func NewMatPreprocessor(size int) (*MatPreprocessor, error) {
	if size <= 0 {
		return nil, movenet.NewSetupError(nil, fmt.Sprintf("input size must be positive, got %d", size))
	}
	return &MatPreprocessor{size: size}, nil
}

// Preprocess Decodes frame, crops it through box and resizes it to the model input, as int32 RGB pixels
func (p *MatPreprocessor) Preprocess(frame *movenet.Frame, box movenet.Box) (*movenet.Input, error) {
	if frame.Format != movenet.FormatJPEG && frame.Format != movenet.FormatPNG {
		return nil, movenet.NewDecodeError(nil, fmt.Sprintf("unsupported frame format %q", frame.Format))
	}
	if len(frame.Data) == 0 {
		return nil, movenet.NewDecodeError(nil, "empty frame payload")
	}

	decoded, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return nil, movenet.NewDecodeError(err, "Can't decode frame")
	}
	defer decoded.Close()
	if decoded.Empty() {
		return nil, movenet.NewDecodeError(nil, fmt.Sprintf("Can't decode %s frame", frame.Format))
	}

	rect, err := box.Rect(decoded.Cols(), decoded.Rows())
	if err != nil {
		return nil, err
	}
	region := decoded.Region(rect)
	defer region.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(region, &resized, image.Pt(p.size, p.size), 0, 0, gocv.InterpolationLinear)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	return castMat(&rgb, p.size)
}

// castMat widens a size x size 8-bit 3 channel Mat to int32 pixels, adding the batch dimension
func castMat(m *gocv.Mat, size int) (*movenet.Input, error) {
	if m.Rows() != size || m.Cols() != size {
		return nil, movenet.NewGeometryError(nil, fmt.Sprintf("resized image is %dx%d, want %dx%d", m.Cols(), m.Rows(), size, size))
	}
	if m.Type() != gocv.MatTypeCV8UC3 {
		return nil, movenet.NewCastError(nil, fmt.Sprintf("unsupported pixel type %v, want 8-bit 3 channels", m.Type()))
	}
	pix, err := m.DataPtrUint8()
	if err != nil {
		return nil, movenet.NewCastError(err, "Can't access pixels")
	}

	input := movenet.NewInput(size)
	if len(pix) != len(input.Data) {
		return nil, movenet.NewCastError(nil, fmt.Sprintf("image holds %d values, want %d", len(pix), len(input.Data)))
	}
	for i, v := range pix {
		input.Data[i] = int32(v)
	}
	return input, nil
}

// Close is a no-op, Mats are released per frame
func (p *MatPreprocessor) Close() error { return nil }
