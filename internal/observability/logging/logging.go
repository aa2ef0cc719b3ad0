// Package logging builds the process-wide slog logger. Everything the service
// emits is JSON tagged with the service name and deployment environment, so
// log pipelines can split streams per deployment.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// FromEnv builds the logger for this service, reading ENVIRONMENT (default
// "dev") and LOG_LEVEL (default info) alongside the rest of the process
// configuration.
func FromEnv(service string) *slog.Logger {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	return New(os.Stdout, service, env, os.Getenv("LOG_LEVEL"))
}

// New builds a JSON logger writing to w. An unknown level string falls back
// to info rather than failing startup.
func New(w io.Writer, service, env, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With(
		slog.String("service", service),
		slog.String("env", env),
	)
}

func parseLevel(s string) slog.Level {
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
