package capture

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mike1808/h264decoder/decoder"
	"github.com/projecthunt/reuseable"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/genert/movenet"
)

// UDPCamera Network camera pushing H.264 over UDP, one NAL chunk per datagram after a fixed header
type UDPCamera struct {
	conn       net.PacketConn
	decoder    *decoder.H264Decoder
	buf        []byte
	headerSize int
	width      int
	height     int
	enc        encoder
	logger     logrus.FieldLogger
}

// OpenUDPCamera Binds the listening socket and prepares the H.264 decoder
func OpenUDPCamera(settings *movenet.CameraSettings, logger logrus.FieldLogger) (*UDPCamera, error) {
	d, err := decoder.New(decoder.PixelFormatBGR)
	if err != nil {
		return nil, movenet.NewSetupError(err, "failed to create H264 decoder")
	}

	address := fmt.Sprintf("%s:%d", settings.Address, settings.Port)
	pc, err := reuseable.ListenPacket("udp4", address)
	if err != nil {
		d.Close()
		return nil, movenet.NewSetupError(err, "Can't listen for camera packets on "+address)
	}
	logger.WithField("address", pc.LocalAddr().String()).Info("Ready to receive data")

	return &UDPCamera{
		conn:       pc,
		decoder:    d,
		buf:        make([]byte, settings.PacketSize),
		headerSize: settings.HeaderSize,
		width:      settings.Width,
		height:     settings.Height,
		enc:        encoder{quality: settings.JPEGQuality},
		logger:     logger,
	}, nil
}

// NextFrame Reads datagrams until the decoder yields a picture, ctx is done or its deadline passes
func (c *UDPCamera) NextFrame(ctx context.Context) (*movenet.Frame, error) {
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, movenet.NewCaptureError(err, "Can't set read deadline")
	}
	// Unblock ReadFrom on cancellation as well
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, movenet.NewCaptureError(err, "frame deadline passed")
		}

		n, _, err := c.conn.ReadFrom(c.buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, movenet.NewCaptureError(ctxErr, "frame deadline passed")
			}
			return nil, movenet.NewCaptureError(err, "failed to read from socket")
		}

		// Empty datagram, keep listening
		if n <= c.headerSize {
			continue
		}

		frames, err := c.decoder.Decode(c.buf[c.headerSize:n])
		if err != nil {
			return nil, movenet.NewCaptureError(err, "failed to decode H264 payload")
		}
		if len(frames) == 0 {
			continue
		}
		return c.encode(frames[0].Data, frames[0].Width, frames[0].Height)
	}
}

// encode wraps a decoded BGR picture in a Mat and compresses it
func (c *UDPCamera) encode(bgr []byte, width, height int) (*movenet.Frame, error) {
	if width != c.width || height != c.height {
		c.logger.WithFields(logrus.Fields{
			"width":  width,
			"height": height,
		}).Debugf("Camera frame size differs from configured %dx%d", c.width, c.height)
	}
	if width <= 0 || height <= 0 || len(bgr) != width*height*3 {
		return nil, movenet.NewCaptureError(nil, fmt.Sprintf("decoded frame holds %d bytes, want %dx%dx3", len(bgr), width, height))
	}

	img, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, bgr)
	if err != nil {
		return nil, movenet.NewCaptureError(err, "failed to load image")
	}
	defer img.Close()
	return c.enc.frame(img)
}

// Size returns the configured camera frame size
func (c *UDPCamera) Size() (int, int) { return c.width, c.height }

// Addr returns the local address the camera listens on
func (c *UDPCamera) Addr() net.Addr { return c.conn.LocalAddr() }

// Close releases the socket and the decoder
func (c *UDPCamera) Close() error {
	err := c.conn.Close()
	c.decoder.Close()
	return err
}
