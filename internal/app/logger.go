package app

import (
	"io"
	"log/slog"
	"os"
)

const serviceName = "odyssey-po"

// NewLogger writes to stdout in the format and level cfg selects.
func NewLogger(cfg *Config) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var level slog.Level
	if cfg != nil && level.UnmarshalText([]byte(cfg.LogLevel)) == nil {
		opts.Level = level
	}

	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With(slog.String("service", serviceName))
}
