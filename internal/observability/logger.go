package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values mean info.
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

// NewLogger builds the service logger. format is "json" or "text" for the
// standard slog handlers, or "console" for colorized human output rendered by
// zerolog. A nil out writes to stdout.
func NewLogger(level, format string, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stdout
	}
	lvl := ParseLevel(level)

	var h slog.Handler
	switch format {
	case "console":
		zl := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
		h = newZerologHandler(zl, lvl)
	case "text":
		h = slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	default:
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	}
	return slog.New(h).With("service", "collision-explorer")
}
