// Package capture adapts video devices, files and network cameras to movenet.FrameSource.
package capture

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/genert/movenet"
)

// Open Opens the frame source selected by settings.Source
func Open(settings *movenet.AppSettings, logger logrus.FieldLogger) (movenet.FrameSource, error) {
	switch settings.Source {
	case movenet.SourceWebcam:
		logger.Info("Starting to capture webcam")
		d, err := OpenDevice(settings.VideoCaptureDeviceSettings, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	case movenet.SourceVideo:
		logger.Info("Starting to capture video")
		v, err := OpenVideo(settings.VideoSettings, logger)
		if err != nil {
			return nil, err
		}
		return v, nil
	case movenet.SourceCamera:
		logger.Info("Starting to listen for packets")
		c, err := OpenUDPCamera(settings.CameraSettings, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, movenet.NewSetupError(nil, fmt.Sprintf("unknown source %q", settings.Source))
	}
}

// encoder Turns decoded Mats into JPEG frames and numbers them
type encoder struct {
	quality int
	seq     uint64
}

func (e *encoder) frame(img gocv.Mat) (*movenet.Frame, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), e.quality})
	if err != nil {
		return nil, movenet.NewCaptureError(err, "Can't encode frame")
	}
	defer buf.Close()

	e.seq++
	return &movenet.Frame{
		Data:       append([]byte(nil), buf.GetBytes()...),
		Width:      img.Cols(),
		Height:     img.Rows(),
		Format:     movenet.FormatJPEG,
		Seq:        e.seq,
		CapturedAt: time.Now(),
	}, nil
}
