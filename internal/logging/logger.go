package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config holds logger configuration for the library's slog-based
// component loggers.
type Config struct {
	Level      slog.Level
	JSONFormat bool      // JSON output (default text for interactive use)
	AddSource  bool      // add source file and line number
	Output     io.Writer // defaults to stderr
}

// Setup installs the process-wide default slog logger. Library
// components derive their loggers from slog.Default, so this must run
// before any graph backend is constructed.
func Setup(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
