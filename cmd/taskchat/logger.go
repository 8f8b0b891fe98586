package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// newLogger builds the process logger. The format comes from configuration;
// "text" uses tint for readable colored output, "json" targets log
// collectors.
func newLogger(level, format string) *slog.Logger {
	l := parseLogLevel(level)

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: l,
		}))
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: l,
	}))
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
