// internal/logging/logging.go
package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/dmm-bridge/internal/config"
)

const timestampFormat = "2006-01-02 15:04:05"

// New builds the process logger from the log section.
// A file that cannot be opened falls back to stdout with a warning.
func New(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}

	if cfg.Output == "file" && cfg.FilePath != "" {
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Warnf("open log file %s: %v, using stdout", cfg.FilePath, err)
		}
	}

	return log
}

// Component returns an entry tagged with the component name.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
