// Package logger builds the slog logger the bots run with.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a text logger at the given level. Output goes to stderr;
// stdout stays free for anything the process is piped into.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New with an explicit sink, used by tests.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

// parseLevel maps the configured level name to a slog level, falling
// back to info for anything unrecognized.
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
