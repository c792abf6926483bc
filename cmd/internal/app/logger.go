package app

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the app-wide logger type (slog).
type Logger = *slog.Logger

const serviceName = "classhub"

// NewLogger builds the process logger: JSON on stdout with source
// locations, tagged with the service name so auth and class route lines
// stay attributable once aggregated. It also becomes the slog default,
// so library code that logs through slog lands in the same stream.
func NewLogger(level string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     parseLogLevel(level),
		AddSource: true,
	})

	log := slog.New(h).With("service", serviceName)
	slog.SetDefault(log)
	return log
}

// parseLogLevel maps the LOG_LEVEL config string to a slog level.
// Unknown values fall back to Info rather than failing startup.
func parseLogLevel(level string) slog.Level {
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
