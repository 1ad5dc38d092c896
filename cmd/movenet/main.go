package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/genert/movenet"
	"github.com/genert/movenet/capture"
	"github.com/genert/movenet/preview"
	"github.com/genert/movenet/tfmodel"
)

// Options command line overrides on top of the settings file
type Options struct {
	SettingsFile string
	Source       string
	ModelDir     string
	DeviceID     int
	Video        string
	Preview      bool
	PreviewPort  int
}

func newRootCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "movenet",
		Short:        "Real-time single keypoint estimation from a camera feed with MoveNet",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, o)
			if err != nil {
				return err
			}
			return run(cmd.Context(), settings)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.SettingsFile, "settings", "", "Path to application's settings (JSON)")
	flags.StringVar(&o.Source, "source", "", "Frame source: webcam, video or camera")
	flags.StringVar(&o.ModelDir, "model-dir", "", "MoveNet SavedModel directory")
	flags.IntVar(&o.DeviceID, "device", 0, "Webcam device index")
	flags.StringVar(&o.Video, "video", "", "Video file or stream URL, implies --source video")
	flags.BoolVar(&o.Preview, "preview", false, "Serve annotated frames as MJPEG")
	flags.IntVar(&o.PreviewPort, "preview-port", 0, "MJPEG preview port")
	return cmd
}

// loadSettings reads the settings file when given and applies explicitly set flags
func loadSettings(cmd *cobra.Command, o *Options) (*movenet.AppSettings, error) {
	settings := movenet.DefaultSettings()
	if o.SettingsFile != "" {
		var err error
		if settings, err = movenet.NewSettings(o.SettingsFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		settings.Source = o.Source
	}
	if flags.Changed("video") {
		settings.Source = movenet.SourceVideo
		if settings.VideoSettings == nil {
			settings.VideoSettings = movenet.DefaultSettings().VideoSettings
		}
		settings.VideoSettings.Source = o.Video
	}
	if flags.Changed("model-dir") {
		settings.ModelSettings.ModelDir = o.ModelDir
	}
	if flags.Changed("device") {
		if settings.VideoCaptureDeviceSettings == nil {
			settings.VideoCaptureDeviceSettings = movenet.DefaultSettings().VideoCaptureDeviceSettings
		}
		settings.VideoCaptureDeviceSettings.DeviceID = o.DeviceID
	}
	if flags.Changed("preview") {
		settings.MjpegSettings.Enable = o.Preview
	}
	if flags.Changed("preview-port") {
		settings.MjpegSettings.Port = o.PreviewPort
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

func run(ctx context.Context, settings *movenet.AppSettings) error {
	logger, err := movenet.NewLogger(settings.LogSettings, os.Stderr)
	if err != nil {
		return err
	}
	logger.Infof("gocv version: %s", gocv.Version())
	logger.Infof("opencv lib version: %s", gocv.OpenCVVersion())

	model, err := tfmodel.Load(settings.ModelSettings, logger)
	if err != nil {
		return err
	}
	prep, err := tfmodel.NewPreprocessor(settings.ModelSettings)
	if err != nil {
		model.Close()
		return err
	}
	source, err := capture.Open(settings, logger)
	if err != nil {
		prep.Close()
		model.Close()
		return err
	}

	app, err := movenet.NewApp(source, prep, model,
		movenet.WithLogger(logger),
		movenet.WithLoopSettings(settings.LoopSettings),
		movenet.WithReporters(&movenet.LogReporter{Logger: logger}),
	)
	if err != nil {
		source.Close()
		prep.Close()
		model.Close()
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.WithError(err).Warn("Error while releasing resources")
		}
	}()

	if settings.MjpegSettings.Enable {
		srv := preview.New(settings.MjpegSettings, app.Stats(), logger)
		srv.Start(ctx)
		app.AddReporter(srv)
	}

	if err := app.Run(ctx); err != nil {
		return err
	}
	logger.Info("Shutting down...")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&Options{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
