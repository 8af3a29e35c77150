// Package logging builds the process-wide slog handler from LogConfig.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/use-agent/reviewharvest/config"
)

// New returns a logger writing to w. Format "text" uses tint for colored
// console output; anything else writes JSON.
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// Init installs the logger as slog's default. Output goes to stderr so that
// CLI output on stdout stays clean; the MCP server relies on this too.
func Init(cfg config.LogConfig) {
	slog.SetDefault(New(cfg, os.Stderr))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
