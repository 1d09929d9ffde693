// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	logger *logrus.Logger
)

// Init configures the logger. An empty level falls back to LOG_LEVEL, then
// "warn". JSON output is used when json is set or LOG_FORMAT=json.
func Init(level string, json bool) *logrus.Logger {
	log := logrus.New()

	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}

	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.WarnLevel)
		log.WithField("invalid_level", level).Warn("Invalid log level, using WARN")
	}

	if json || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(os.Stderr)

	mu.Lock()
	logger = log
	mu.Unlock()

	return log
}

// Get returns the process logger, initializing it with defaults if needed.
func Get() *logrus.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		return Init("", false)
	}
	return l
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}

// WithComponent returns an entry tagged with the emitting component.
func WithComponent(name string) *logrus.Entry {
	return Get().WithField("component", name)
}
