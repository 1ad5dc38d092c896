package movenet

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Application Main engine. Owns the long-lived pipeline state: frame source,
// preprocessor, inference session and the crop box computed at startup.
type Application struct {
	source    FrameSource
	prep      Preprocessor
	session   Session
	box       Box
	loop      LoopSettings
	reporters []Reporter
	logger    logrus.FieldLogger
	stats     Stats
}

// Option Configures an Application
type Option func(*Application)

// WithReporters appends reporters receiving every successful frame
func WithReporters(reporters ...Reporter) Option {
	return func(app *Application) {
		app.reporters = append(app.reporters, reporters...)
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger logrus.FieldLogger) Option {
	return func(app *Application) {
		app.logger = logger
	}
}

// WithLoopSettings sets timeout, backoff and stats knobs
func WithLoopSettings(loop LoopSettings) Option {
	return func(app *Application) {
		app.loop = loop
	}
}

// NewApp Builds the pipeline context. The crop box is derived from the source's negotiated frame size.
func NewApp(source FrameSource, prep Preprocessor, session Session, opts ...Option) (*Application, error) {
	if source == nil || prep == nil || session == nil {
		return nil, NewSetupError(nil, "source, preprocessor and session are required")
	}
	app := &Application{
		source:  source,
		prep:    prep,
		session: session,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(app)
	}

	width, height := source.Size()
	box, err := CropBox(width, height)
	if err != nil {
		return nil, NewSetupError(err, "Can't compute crop box")
	}
	app.box = box
	return app, nil
}

// AddReporter registers r for every successful frame. Not safe to call once Run started.
func (app *Application) AddReporter(r Reporter) {
	app.reporters = append(app.reporters, r)
}

// Box returns the crop box used for every frame
func (app *Application) Box() Box { return app.box }

// Stats returns the loop counters
func (app *Application) Stats() *Stats { return &app.stats }

// ProcessFrame Runs one capture -> preprocess -> inference -> extraction cycle.
// Returned errors always carry a Kind, except ErrEndOfStream which is passed through.
func (app *Application) ProcessFrame(ctx context.Context) (*Report, error) {
	start := time.Now()

	frame, err := app.source.NextFrame(ctx)
	if err != nil {
		if errors.Is(err, ErrEndOfStream) {
			return nil, err
		}
		return nil, ensureKind(err, KindCapture)
	}

	input, err := app.prep.Preprocess(frame, app.box)
	if err != nil {
		return nil, ensureKind(err, KindDecode)
	}

	output, err := app.session.Run(ctx, input)
	if err != nil {
		return nil, ensureKind(err, KindInference)
	}

	kp, err := ExtractKeypoint(output)
	if err != nil {
		return nil, err
	}

	return &Report{
		Seq:      frame.Seq,
		Keypoint: kp,
		Elapsed:  time.Since(start),
		Box:      app.box,
		Frame:    frame,
	}, nil
}

// Run Drives the frame loop until ctx is cancelled or the source is exhausted.
// Per-frame failures are logged and the frame is skipped; they never stop the loop.
func (app *Application) Run(ctx context.Context) error {
	app.logger.WithField("box", app.box.String()).Info("Frame loop started")

	captureFailures := 0
	lastStats := time.Now()
	for {
		if ctx.Err() != nil {
			app.logger.Info("Frame loop stopped")
			return nil
		}

		report, err := app.step(ctx)
		if err != nil {
			if errors.Is(err, ErrEndOfStream) {
				app.logger.Info("Frame source exhausted, stop grabbing...")
				return nil
			}
			if ctx.Err() != nil {
				app.logger.Info("Frame loop stopped")
				return nil
			}

			kind := KindOf(err)
			app.stats.recordFailure(kind)
			app.logger.WithFields(logrus.Fields{"kind": kind.String(), "error": err.Error()}).Warn("Frame skipped")

			if kind == KindCapture {
				captureFailures++
				app.backoff(ctx, captureFailures)
			}
			continue
		}
		captureFailures = 0

		app.stats.recordFrame(report.Elapsed)
		for _, r := range app.reporters {
			r.Report(report)
		}

		if interval := app.loop.StatsInterval.Std(); interval > 0 && time.Since(lastStats) >= interval {
			app.logStats()
			lastStats = time.Now()
		}
	}
}

func (app *Application) step(ctx context.Context) (*Report, error) {
	if timeout := app.loop.FrameTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return app.ProcessFrame(ctx)
}

// backoff Sleeps base * 2^(failures-1), capped, or until ctx is done
func (app *Application) backoff(ctx context.Context, failures int) {
	delay := app.loop.CaptureBackoff.Std()
	if delay <= 0 {
		return
	}
	max := app.loop.MaxCaptureBackoff.Std()
	for i := 1; i < failures && (max <= 0 || delay < max); i++ {
		delay *= 2
	}
	if max > 0 && delay > max {
		delay = max
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (app *Application) logStats() {
	snap := app.stats.Snapshot()
	app.logger.WithFields(logrus.Fields{
		"processed":    snap.Processed,
		"skipped":      snap.Skipped(),
		"mean_latency": snap.MeanLatency,
		"last_latency": snap.LastLatency,
	}).Info("Frame loop stats")
}

// Close Free memory for underlying objects
func (app *Application) Close() error {
	var first error
	for _, c := range []io.Closer{app.source, app.prep, app.session} {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return errors.Wrap(first, "Can't release pipeline resources")
}

func ensureKind(err error, kind Kind) error {
	if KindOf(err) != KindUnknown {
		return err
	}
	return &Error{Kind: kind, Err: err}
}
