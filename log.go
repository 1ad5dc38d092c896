package movenet

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NewLogger Builds the application logger writing to out
func NewLogger(settings LogSettings, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	switch settings.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("unknown log format %q", settings.Format)
	}

	level := logrus.InfoLevel
	if settings.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(settings.Level); err != nil {
			return nil, errors.Wrap(err, "invalid log level")
		}
	}
	logger.SetLevel(level)
	return logger, nil
}
