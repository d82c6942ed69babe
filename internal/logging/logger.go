// Package logging builds the service's structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// New constructs a slog logger writing to stdout.
// Format "auto" picks console output on a terminal and JSON otherwise.
func New(level, format string) (*slog.Logger, error) {
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return newLogger(os.Stdout, level, format, tty)
}

func newLogger(w io.Writer, level, format string, tty bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	opts.AddSource = opts.Level.Level() <= slog.LevelDebug

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == "auto" {
		format = "json"
		if tty {
			format = "console"
		}
	}

	var handler slog.Handler
	switch format {
	case "console", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
	return slog.New(handler), nil
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
