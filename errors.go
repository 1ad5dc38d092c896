package movenet

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEndOfStream is returned by a FrameSource which has no more frames to give (e.g. video file reached its end)
var ErrEndOfStream = errors.New("end of stream")

// Kind Classifies pipeline failures
type Kind int

const (
	KindUnknown Kind = iota
	// KindCapture device disconnect, timeout or malformed frame
	KindCapture
	// KindDecode encoded payload could not be decoded
	KindDecode
	// KindGeometry crop box or target size is invalid
	KindGeometry
	// KindCast unsupported dtype conversion
	KindCast
	// KindInference model execution or output shape contract violation
	KindInference
	// KindSetup model load or node resolution failure, fatal
	KindSetup

	numKinds
)

var kindNames = [...]string{
	KindUnknown:   "unknown",
	KindCapture:   "capture",
	KindDecode:    "decode",
	KindGeometry:  "geometry",
	KindCast:      "cast",
	KindInference: "inference",
	KindSetup:     "setup",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Preprocess Reports whether kind belongs to the preprocessing group
func (k Kind) Preprocess() bool {
	return k == KindDecode || k == KindGeometry || k == KindCast
}

// Recoverable Reports whether the frame loop may skip the frame and carry on
func (k Kind) Recoverable() bool {
	return k != KindSetup
}

// Error Pipeline error carrying its Kind
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + " error: " + e.Err.Error()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error { return e.Err }

// Cause satisfies pkg/errors causer
func (e *Error) Cause() error { return e.Err }

func newError(kind Kind, err error, message string) error {
	if err == nil {
		err = errors.New(message)
	} else if message != "" {
		err = errors.Wrap(err, message)
	}
	return &Error{Kind: kind, Err: err}
}

// NewCaptureError wraps err (may be nil) as a capture failure
func NewCaptureError(err error, message string) error { return newError(KindCapture, err, message) }

// NewDecodeError wraps err (may be nil) as a decode failure
func NewDecodeError(err error, message string) error { return newError(KindDecode, err, message) }

// NewGeometryError wraps err (may be nil) as a geometry failure
func NewGeometryError(err error, message string) error { return newError(KindGeometry, err, message) }

// NewCastError wraps err (may be nil) as a cast failure
func NewCastError(err error, message string) error { return newError(KindCast, err, message) }

// NewInferenceError wraps err (may be nil) as an inference failure
func NewInferenceError(err error, message string) error { return newError(KindInference, err, message) }

// NewSetupError wraps err (may be nil) as a setup failure
func NewSetupError(err error, message string) error { return newError(KindSetup, err, message) }

// KindOf Extracts Kind from err, looking through any wrapping. Returns KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
