// Package logging sets up the zerolog logger of the autorotate command.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jrm-1535/autorotate/internal/config"
)

// Level returns the level named by the LOG_LEVEL environment variable, or
// the configured one.
func Level(cfg config.LoggingConfig) zerolog.Level {
	name := cfg.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		name = env
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

// New returns a logger writing on w, or on stderr if w is nil.
func New(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(Level(cfg)).With().Timestamp().Logger()
}
