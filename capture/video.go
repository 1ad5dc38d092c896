package capture

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/genert/movenet"
)

// Video File or stream URL read through gocv. Unlike a device it ends.
type Video struct {
	gocvSource
	path string
}

// OpenVideo Opens settings.Source
func OpenVideo(settings *movenet.VideoSettings, logger logrus.FieldLogger) (*Video, error) {
	vc, err := gocv.OpenVideoCapture(settings.Source)
	if err != nil {
		return nil, movenet.NewSetupError(err, "Can't open video capture")
	}

	width, height := int(vc.Get(gocv.VideoCaptureFrameWidth)), int(vc.Get(gocv.VideoCaptureFrameHeight))
	if width <= 0 || height <= 0 {
		_ = vc.Close()
		return nil, movenet.NewSetupError(nil, "Can't determine video frame size of "+settings.Source)
	}
	logger.WithFields(logrus.Fields{
		"source": settings.Source,
		"width":  width,
		"height": height,
		"fps":    vc.Get(gocv.VideoCaptureFPS),
	}).Info("Video opened")

	return &Video{
		gocvSource: gocvSource{
			capture: vc,
			img:     gocv.NewMat(),
			enc:     encoder{quality: settings.JPEGQuality},
			width:   width,
			height:  height,
		},
		path: settings.Source,
	}, nil
}

// NextFrame implements movenet.FrameSource. Returns movenet.ErrEndOfStream once the video is over.
func (v *Video) NextFrame(ctx context.Context) (*movenet.Frame, error) {
	frame, ok, err := v.read(ctx)
	if !ok {
		return nil, errors.Wrap(movenet.ErrEndOfStream, v.path)
	}
	return frame, err
}
