// Package logging builds the slog loggers used by the CLI and the driver.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the handler. Level is one of debug, info, warn or error
// and defaults to info; Format is text or json and defaults to text; Output
// defaults to stderr.
type Config struct {
	Level   string
	Format  string
	Output  io.Writer
	Service string
}

// New returns a logger for cfg. Every record carries the service name when
// one is set.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatText:
		handler = slog.NewTextHandler(out, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}
	return slog.New(handler), nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level: %s", s)
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
