// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context; the level comes
// from configuration or the LOG_LEVEL environment variable.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Init creates and returns a structured logger for the given service.
// The logger outputs JSON to stdout with the service name embedded and
// is installed as the slog default.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)
	slog.SetDefault(logger)
	return logger
}

// InitFromEnv is Init with the level read from LOG_LEVEL, defaulting to
// info when unset or unrecognized.
func InitFromEnv(service string) *slog.Logger {
	return Init(service, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
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
