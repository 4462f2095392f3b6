// Package logger configures the process-wide slog logger. The rest of the
// codebase takes a *slog.Logger and never touches handler setup directly.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line, for production.
	FormatJSON Format = "json"
	// FormatText emits human-readable key=value lines, for development.
	FormatText Format = "text"
)

// Options configures the logger.
type Options struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	// Unrecognized values fall back to info.
	Level string

	// Format selects the output encoding. Empty defaults to JSON.
	Format Format

	// Output is the destination writer. Nil defaults to stdout.
	Output io.Writer
}

// ParseLevel maps a level name onto a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from the options and installs it as the slog default.
func New(opts Options) *slog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(output, handlerOpts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
