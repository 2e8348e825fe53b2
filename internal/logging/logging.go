// Package logging builds the slog loggers used by the server.
//
// Standard output carries the protocol, so diagnostics always go to stderr or
// to a log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options selects the handler, level and destination.
type Options struct {
	Level  string
	Format string
	File   string
}

// Setup is a configured logger and the function that releases its output.
type Setup struct {
	Logger *slog.Logger
	Close  func() error
	Path   string
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
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

// New builds a logger writing to stderr, or to opts.File when set.
func New(opts Options) (Setup, error) {
	return newWithStderr(opts, os.Stderr)
}

func newWithStderr(opts Options, stderr io.Writer) (Setup, error) {
	out := stderr
	closeFn := func() error { return nil }
	path := ""
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return Setup{Logger: Nop(), Close: closeFn}, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return Setup{Logger: Nop(), Close: closeFn}, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = f.Close
		path = opts.File
	}

	level := ParseLevel(opts.Level)
	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return Setup{Logger: slog.New(handler), Close: closeFn, Path: path}, nil
}
