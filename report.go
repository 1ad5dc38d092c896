package movenet

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Report Result of one successfully processed frame
type Report struct {
	Seq      uint64        `json:"seq"`
	Keypoint Keypoint      `json:"keypoint"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Box      Box           `json:"box"`
	// Frame is only valid during the Report call and must not be retained
	Frame *Frame `json:"-"`
}

// Reporter Consumes reports, called synchronously from the frame loop
type Reporter interface {
	Report(r *Report)
}

// ReporterFunc Adapter to allow the use of ordinary functions as Reporter
type ReporterFunc func(r *Report)

// Report calls f(r)
func (f ReporterFunc) Report(r *Report) { f(r) }

// LogReporter Writes one console line per report
type LogReporter struct {
	Logger logrus.FieldLogger
}

// Report implements Reporter
func (l *LogReporter) Report(r *Report) {
	l.Logger.WithFields(logrus.Fields{
		"seq":     r.Seq,
		"elapsed": r.Elapsed,
		"y":       r.Keypoint.Y,
		"x":       r.Keypoint.X,
		"score":   r.Keypoint.Score,
	}).Info("keypoint")
}
