// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Init sets up the default slog logger. Log records are written as JSON to a
// size-rotated file at path; when verbose is set they are mirrored to stderr.
// An empty path logs to stderr only.
func Init(path string, verbose bool) *slog.Logger {
	var w io.Writer = os.Stderr

	if path != "" {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}

		if verbose {
			w = io.MultiWriter(rotated, os.Stderr)
		} else {
			w = rotated
		}
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))

	slog.SetDefault(logger)

	return logger
}
