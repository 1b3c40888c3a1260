package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

// New builds the service logger. Production gets JSON lines, everything else
// colored text. Unknown levels fall back to info.
func New(level, env string) *logrus.Logger {
	return NewWithWriter(level, env, os.Stdout)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(level, env string, w io.Writer) *logrus.Logger {
	log := logrus.New()

	if env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(w)

	return log
}
