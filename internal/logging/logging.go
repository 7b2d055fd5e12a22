// Package logging sets up the structured logger shared by the runner and
// the CLI. Diagnostics go through slog so the colored report stream on
// stdout stays free of log noise.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LogLevel is the verbosity selected with --log-level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var slogLevels = map[LogLevel]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// SlogLevel maps l onto slog. Unknown values log at info.
func (l LogLevel) SlogLevel() slog.Level {
	if lv, ok := slogLevels[l]; ok {
		return lv
	}
	return slog.LevelInfo
}

// ParseLevel maps a flag value such as "debug" to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// New returns a text logger writing to output at the given level.
func New(output io.Writer, level LogLevel) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}
	return slog.New(slog.NewTextHandler(output, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
