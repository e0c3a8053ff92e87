package logging

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger. The CLI passes stderr so stdout
// stays reserved for user-facing run output.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}
