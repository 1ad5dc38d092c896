package movenet

import (
	"context"
	"io"
	"time"
)

// Encoded frame formats understood by the preprocessors
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// Frame One capture from the video source. Owned by the loop iteration which produced it.
type Frame struct {
	Data       []byte    // Encoded image payload
	Width      int       // Nominal width in pixels
	Height     int       // Nominal height in pixels
	Format     string    // FormatJPEG or FormatPNG
	Seq        uint64    // Capture index, monotonic per source
	CapturedAt time.Time // Wall clock time the frame was grabbed
}

// FrameSource Lazy, infinite and non-restartable sequence of frames
type FrameSource interface {
	// NextFrame blocks until the next frame is available. Acquisition faults are
	// returned as capture errors; ErrEndOfStream means no frame will ever follow.
	NextFrame(ctx context.Context) (*Frame, error)
	// Size returns the negotiated frame size
	Size() (width, height int)
	io.Closer
}
