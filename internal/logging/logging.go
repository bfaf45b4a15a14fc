// Package logging builds the daemon's zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects log level and sinks. Console output always goes to
// stderr; File adds a rotated file sink next to it.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	NoColor    bool
}

// New builds the root logger. Components derive their own with
// logger.With().Str("component", ...).
func New(opts Options) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
		NoColor:    opts.NoColor,
	}
	var sink io.Writer = console
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    max(1, opts.MaxSizeMB),
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		sink = zerolog.MultiLevelWriter(console, rotated)
	}
	logger := zerolog.New(sink).Level(level).With().Timestamp().Logger()
	return logger, nil
}
