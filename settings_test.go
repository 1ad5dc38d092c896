package movenet

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewSettingsDefaults(t *testing.T) {
	settings, err := NewSettings(writeSettings(t, `{}`))
	if err != nil {
		t.Fatalf("NewSettings failed: %v", err)
	}
	d := settings.VideoCaptureDeviceSettings
	if settings.Source != SourceWebcam || d.Width != 640 || d.Height != 480 || d.FPS != 30 || d.FourCC != "MJPG" {
		t.Errorf("unexpected capture defaults: source=%s device=%+v", settings.Source, *d)
	}
	m := settings.ModelSettings
	if m.InputNode != "serving_default_input" || m.OutputNode != "StatefulPartitionedCall" || m.InputSize != 256 {
		t.Errorf("unexpected model defaults: %+v", m)
	}
	if settings.LoopSettings.FrameTimeout.Std() != 2*time.Second {
		t.Errorf("FrameTimeout = %v, want 2s", settings.LoopSettings.FrameTimeout)
	}
}

func TestNewSettingsOverrides(t *testing.T) {
	settings, err := NewSettings(writeSettings(t, `{
		"source": "video",
		"video_settings": {"source": "clip.mp4"},
		"model_settings": {"model_dir": "/models/thunder", "input_size": 192, "preprocessor": "opencv"},
		"loop_settings": {"frame_timeout": "500ms", "capture_backoff": "0s"},
		"log_settings": {"level": "debug", "format": "json"}
	}`))
	if err != nil {
		t.Fatalf("NewSettings failed: %v", err)
	}
	if settings.Source != SourceVideo || settings.VideoSettings.Source != "clip.mp4" {
		t.Errorf("video source not read: %+v", settings.VideoSettings)
	}
	if settings.VideoSettings.JPEGQuality != 95 {
		t.Errorf("JPEGQuality = %d, want default 95 kept", settings.VideoSettings.JPEGQuality)
	}
	m := settings.ModelSettings
	if m.ModelDir != "/models/thunder" || m.InputSize != 192 || m.Preprocessor != PreprocessorOpenCV {
		t.Errorf("model settings not read: %+v", m)
	}
	if m.InputNode != "serving_default_input" {
		t.Errorf("InputNode = %q, want default kept", m.InputNode)
	}
	if got := settings.LoopSettings.FrameTimeout.Std(); got != 500*time.Millisecond {
		t.Errorf("FrameTimeout = %v, want 500ms", got)
	}
	if got := settings.LoopSettings.CaptureBackoff.Std(); got != 0 {
		t.Errorf("CaptureBackoff = %v, want 0", got)
	}
}

func TestNewSettingsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Malformed JSON", `{"source": `},
		{"Empty source", `{"source": ""}`},
		{"Unknown source", `{"source": "satellite"}`},
		{"Video without path", `{"source": "video"}`},
		{"Bad camera port", `{"source": "camera", "camera_settings": {"port": 0}}`},
		{"Camera header larger than packet", `{"source": "camera", "camera_settings": {"port": 5600, "width": 640, "height": 480, "header_size": 2000, "packet_size": 1514, "jpeg_quality": 90}}`},
		{"Bad input size", `{"model_settings": {"input_size": 0}}`},
		{"Missing node", `{"model_settings": {"output_node": ""}}`},
		{"Unknown preprocessor", `{"model_settings": {"preprocessor": "cuda"}}`},
		{"Bad duration", `{"loop_settings": {"frame_timeout": "soon"}}`},
		{"Numeric duration", `{"loop_settings": {"frame_timeout": 5}}`},
		{"Negative duration", `{"loop_settings": {"frame_timeout": "-1s"}}`},
		{"Bad quality", `{"video_capture_device": {"jpeg_quality": 0}}`},
		{"Bad mjpeg port", `{"mjpeg_settings": {"enable": true, "port": 70000}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSettings(writeSettings(t, tt.content)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestNewSettingsMissingFile(t *testing.T) {
	if _, err := NewSettings(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestValidateClampsBackoff(t *testing.T) {
	settings := DefaultSettings()
	settings.LoopSettings.CaptureBackoff = Duration(time.Second)
	settings.LoopSettings.MaxCaptureBackoff = Duration(time.Millisecond)
	if err := settings.Validate(); err != nil {
		t.Fatal(err)
	}
	if settings.LoopSettings.MaxCaptureBackoff != settings.LoopSettings.CaptureBackoff {
		t.Errorf("MaxCaptureBackoff = %v, want raised to %v", settings.LoopSettings.MaxCaptureBackoff, settings.LoopSettings.CaptureBackoff)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(LogSettings{Level: "debug", Format: "json"}, os.Stderr); err != nil {
		t.Errorf("NewLogger failed: %v", err)
	}
	if _, err := NewLogger(LogSettings{Level: "chatty"}, os.Stderr); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := NewLogger(LogSettings{Format: "xml"}, os.Stderr); err == nil {
		t.Error("Expected error for unknown format")
	}
}
