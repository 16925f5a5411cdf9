package logger

import (
	"github.com/hashicorp/go-hclog"
)

// Options controls how the application logger is built.
type Options struct {
	Level      string
	JSONFormat bool
}

// New creates the root application logger. Components derive their own
// loggers from it with Named().
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       "previewgen",
		Level:      level,
		JSONFormat: opts.JSONFormat,
	})
}
