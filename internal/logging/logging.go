// Package logging builds the application's structured logger from config.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/seenimoa/newspulse/internal/config"
)

// ParseLevel maps a config level name to a slog level. Unknown names map to info.
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

// New returns a logger writing to w in the configured format ("text" or "json").
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup builds the logger on stderr and installs it as the slog default.
func Setup(cfg config.LoggingConfig) *slog.Logger {
	l := New(cfg, os.Stderr)
	slog.SetDefault(l)
	return l
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
