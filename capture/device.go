package capture

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/genert/movenet"
)

// gocvSource Shared reading logic of devices and files opened through gocv.VideoCapture
type gocvSource struct {
	capture *gocv.VideoCapture
	img     gocv.Mat
	enc     encoder
	width   int
	height  int
}

// read grabs one frame. ok is false when the capture returned nothing.
func (s *gocvSource) read(ctx context.Context) (frame *movenet.Frame, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, true, movenet.NewCaptureError(err, "frame deadline passed before capture")
	}
	if ok := s.capture.Read(&s.img); !ok {
		return nil, false, nil
	}
	if s.img.Empty() {
		return nil, true, movenet.NewCaptureError(nil, "Empty frame has been detected")
	}
	// The read itself can't be interrupted, drop frames that arrive too late
	if err := ctx.Err(); err != nil {
		return nil, true, movenet.NewCaptureError(err, "frame arrived after deadline")
	}
	frame, err = s.enc.frame(s.img)
	return frame, true, err
}

// Size returns the negotiated frame size
func (s *gocvSource) Size() (int, int) { return s.width, s.height }

// Close Free memory for underlying objects
func (s *gocvSource) Close() error {
	_ = s.img.Close()
	return s.capture.Close()
}

// Device Webcam opened by index
type Device struct {
	gocvSource
}

// OpenDevice Opens the webcam and negotiates resolution, frame rate and compressed format.
// The driver grants the closest mode it supports, which becomes the frame size.
func OpenDevice(settings *movenet.VideoCaptureDeviceSettings, logger logrus.FieldLogger) (*Device, error) {
	vc, err := gocv.VideoCaptureDevice(settings.DeviceID)
	if err != nil {
		return nil, movenet.NewSetupError(err, "Can't open video capture")
	}

	if settings.FourCC != "" {
		vc.Set(gocv.VideoCaptureFOURCC, vc.ToCodec(settings.FourCC))
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(settings.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(settings.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(settings.FPS))

	width, height := int(vc.Get(gocv.VideoCaptureFrameWidth)), int(vc.Get(gocv.VideoCaptureFrameHeight))
	if width <= 0 || height <= 0 {
		// Some backends don't report the mode, trust the request
		width, height = settings.Width, settings.Height
	}
	fields := logrus.Fields{
		"device": settings.DeviceID,
		"width":  width,
		"height": height,
		"fps":    vc.Get(gocv.VideoCaptureFPS),
		"fourcc": vc.CodecString(),
	}
	if width != settings.Width || height != settings.Height {
		logger.WithFields(fields).Warnf("Requested %dx%d is unavailable, using closest format", settings.Width, settings.Height)
	} else {
		logger.WithFields(fields).Info("Video capture opened")
	}

	return &Device{gocvSource{
		capture: vc,
		img:     gocv.NewMat(),
		enc:     encoder{quality: settings.JPEGQuality},
		width:   width,
		height:  height,
	}}, nil
}

// NextFrame implements movenet.FrameSource
func (d *Device) NextFrame(ctx context.Context) (*movenet.Frame, error) {
	frame, ok, err := d.read(ctx)
	if !ok {
		return nil, movenet.NewCaptureError(nil, fmt.Sprintf("Can't read next frame from device (%dx%d)", d.width, d.height))
	}
	return frame, err
}
