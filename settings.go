package movenet

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Supported frame sources
const (
	SourceWebcam = "webcam"
	SourceVideo  = "video"
	SourceCamera = "camera"
)

// Supported preprocessors
const (
	PreprocessorGraph  = "graph"
	PreprocessorOpenCV = "opencv"
)

// AppSettings Settings for application
type AppSettings struct {
	Source                     string                      `json:"source"`
	VideoCaptureDeviceSettings *VideoCaptureDeviceSettings `json:"video_capture_device"`
	VideoSettings              *VideoSettings              `json:"video_settings"`
	CameraSettings             *CameraSettings             `json:"camera_settings"`
	ModelSettings              ModelSettings               `json:"model_settings"`
	LoopSettings               LoopSettings                `json:"loop_settings"`
	LogSettings                LogSettings                 `json:"log_settings"`
	MjpegSettings              MjpegSettings               `json:"mjpeg_settings"`
}

// DefaultSettings Settings for a 640x480@30 MJPEG webcam and a MoveNet SavedModel in ./movenet
func DefaultSettings() *AppSettings {
	return &AppSettings{
		Source: SourceWebcam,
		VideoCaptureDeviceSettings: &VideoCaptureDeviceSettings{
			DeviceID:    0,
			Width:       640,
			Height:      480,
			FPS:         30,
			FourCC:      "MJPG",
			JPEGQuality: 95,
		},
		VideoSettings: &VideoSettings{
			JPEGQuality: 95,
		},
		CameraSettings: &CameraSettings{
			Address:     "0.0.0.0",
			Port:        5600,
			Width:       640,
			Height:      480,
			HeaderSize:  72,
			PacketSize:  1514,
			JPEGQuality: 95,
		},
		ModelSettings: ModelSettings{
			ModelDir:     "movenet",
			Tags:         []string{"serve"},
			InputNode:    "serving_default_input",
			OutputNode:   "StatefulPartitionedCall",
			InputSize:    256,
			Preprocessor: PreprocessorGraph,
		},
		LoopSettings: LoopSettings{
			FrameTimeout:      Duration(2 * time.Second),
			CaptureBackoff:    Duration(50 * time.Millisecond),
			MaxCaptureBackoff: Duration(400 * time.Millisecond),
			StatsInterval:     Duration(10 * time.Second),
		},
		LogSettings: LogSettings{
			Level:  "info",
			Format: "text",
		},
		MjpegSettings: MjpegSettings{
			Enable: false,
			Port:   8080,
		},
	}
}

// NewSettings Create new AppSettings from content of configuration file. Missing fields keep their defaults.
func NewSettings(fileName string) (*AppSettings, error) {
	bytesValues, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read settings file")
	}

	settings := DefaultSettings()
	if err = json.Unmarshal(bytesValues, settings); err != nil {
		return nil, errors.Wrapf(err, "Can't parse settings file %s", fileName)
	}

	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}
	return settings, nil
}

// Validate Checks settings consistency
func (s *AppSettings) Validate() error {
	switch s.Source {
	case SourceWebcam:
		if s.VideoCaptureDeviceSettings == nil {
			return fmt.Errorf("field 'video_capture_device' has not been provided for source %q", s.Source)
		}
		d := s.VideoCaptureDeviceSettings
		if d.Width <= 0 || d.Height <= 0 || d.FPS <= 0 {
			return fmt.Errorf("video_capture_device: width, height and fps must be > 0")
		}
		if err := checkQuality(d.JPEGQuality); err != nil {
			return errors.Wrap(err, "video_capture_device")
		}
	case SourceVideo:
		if s.VideoSettings == nil || s.VideoSettings.Source == "" {
			return fmt.Errorf("field 'video_settings.source' has not been provided for source %q", s.Source)
		}
		if err := checkQuality(s.VideoSettings.JPEGQuality); err != nil {
			return errors.Wrap(err, "video_settings")
		}
	case SourceCamera:
		if s.CameraSettings == nil {
			return fmt.Errorf("field 'camera_settings' has not been provided for source %q", s.Source)
		}
		c := s.CameraSettings
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("camera_settings.port must be in 1..65535, got %d", c.Port)
		}
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("camera_settings: width and height must be > 0")
		}
		if c.HeaderSize < 0 || c.PacketSize <= c.HeaderSize {
			return fmt.Errorf("camera_settings: packet_size (%d) must exceed header_size (%d)", c.PacketSize, c.HeaderSize)
		}
		if err := checkQuality(c.JPEGQuality); err != nil {
			return errors.Wrap(err, "camera_settings")
		}
	case "":
		return fmt.Errorf("source setting is empty")
	default:
		return fmt.Errorf("unknown source %q, want one of %s", s.Source, strings.Join([]string{SourceWebcam, SourceVideo, SourceCamera}, ", "))
	}

	m := &s.ModelSettings
	if m.ModelDir == "" {
		return fmt.Errorf("model_settings.model_dir is required")
	}
	if m.InputNode == "" || m.OutputNode == "" {
		return fmt.Errorf("model_settings: input_node and output_node are required")
	}
	if m.InputSize <= 0 {
		return fmt.Errorf("model_settings.input_size must be > 0, got %d", m.InputSize)
	}
	if len(m.Tags) == 0 {
		m.Tags = []string{"serve"}
	}
	switch m.Preprocessor {
	case PreprocessorGraph, PreprocessorOpenCV:
	case "":
		m.Preprocessor = PreprocessorGraph
	default:
		return fmt.Errorf("unknown model_settings.preprocessor %q", m.Preprocessor)
	}

	l := &s.LoopSettings
	if l.FrameTimeout < 0 || l.CaptureBackoff < 0 || l.MaxCaptureBackoff < 0 || l.StatsInterval < 0 {
		return fmt.Errorf("loop_settings: durations must not be negative")
	}
	if l.MaxCaptureBackoff < l.CaptureBackoff {
		l.MaxCaptureBackoff = l.CaptureBackoff
	}

	if s.MjpegSettings.Enable && (s.MjpegSettings.Port <= 0 || s.MjpegSettings.Port > 65535) {
		return fmt.Errorf("mjpeg_settings.port must be in 1..65535, got %d", s.MjpegSettings.Port)
	}
	return nil
}

func checkQuality(q int) error {
	if q < 1 || q > 100 {
		return fmt.Errorf("jpeg_quality must be in 1..100, got %d", q)
	}
	return nil
}

// VideoCaptureDeviceSettings settings for device settings
type VideoCaptureDeviceSettings struct {
	DeviceID int `json:"device_id"`
	// Requested format. The driver may grant the closest one it supports.
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FPS         int    `json:"fps"`
	FourCC      string `json:"fourcc"`
	JPEGQuality int    `json:"jpeg_quality"`
}

// VideoSettings settings for video file (or URL) source
type VideoSettings struct {
	Source      string `json:"source"`
	JPEGQuality int    `json:"jpeg_quality"`
}

// CameraSettings settings for UDP H.264 camera
type CameraSettings struct {
	Address     string `json:"address"`
	Port        int    `json:"port"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	HeaderSize  int    `json:"header_size"` // bytes stripped off every datagram before H.264 payload
	PacketSize  int    `json:"packet_size"`
	JPEGQuality int    `json:"jpeg_quality"`
}

// ModelSettings SavedModel location and its graph contract
type ModelSettings struct {
	ModelDir     string   `json:"model_dir"`
	Tags         []string `json:"tags"`
	InputNode    string   `json:"input_node"`
	OutputNode   string   `json:"output_node"`
	InputSize    int      `json:"input_size"`
	Preprocessor string   `json:"preprocessor"`
}

// LoopSettings frame loop robustness knobs. Zero disables the corresponding feature.
type LoopSettings struct {
	FrameTimeout      Duration `json:"frame_timeout"`
	CaptureBackoff    Duration `json:"capture_backoff"`
	MaxCaptureBackoff Duration `json:"max_capture_backoff"`
	StatsInterval     Duration `json:"stats_interval"`
}

// LogSettings logger configuration
type LogSettings struct {
	Level  string `json:"level"`
	Format string `json:"format"` // text or json
}

// MjpegSettings settings for preview output
type MjpegSettings struct {
	Enable bool `json:"enable"`
	Port   int  `json:"port"`
}

// Duration time.Duration which reads from JSON strings like "2s" or "400ms"
type Duration time.Duration

// Std returns d as time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "duration must be a string like \"2s\"")
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}
