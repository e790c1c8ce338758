package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func NewJSONLogger(service, level string) *slog.Logger {
	return newJSONLogger(os.Stdout, service, level)
}

// Setup builds the service logger and installs it as the slog default so
// adapters logging through slog.Warn/slog.Error share the same handler.
func Setup(service, level string) *slog.Logger {
	return SetupWriter(os.Stdout, service, level)
}

// SetupWriter is Setup for processes that keep stdout for their own output.
func SetupWriter(w io.Writer, service, level string) *slog.Logger {
	logger := newJSONLogger(w, service, level)
	slog.SetDefault(logger)
	return logger
}

func newJSONLogger(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
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
