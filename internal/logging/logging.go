// Package logging provides structured logging for hwmond using stdlib slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// LogConfig controls logger creation.
type LogConfig struct {
	Level  string    // "debug", "info", "warn", "error"
	Format string    // "json" (default), "text"
	Output io.Writer // defaults to os.Stderr
}

// New creates a configured *slog.Logger.
func New(cfg LogConfig) *slog.Logger {
	return newLogger(cfg, parseLevel(cfg.Level))
}

func newLogger(cfg LogConfig, level slog.Leveler) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler)
}

// WithFields returns a child logger with additional context fields.
func WithFields(logger *slog.Logger, fields ...any) *slog.Logger {
	return logger.With(fields...)
}

// ForMonitor returns the child logger a monitor goroutine logs through.
func ForMonitor(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("monitor", name)
}

// ValidateLevel reports whether s names a known log level.
func ValidateLevel(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", s)
}

// LevelVar is a log level that can be changed while loggers use it.
type LevelVar struct {
	v slog.LevelVar
}

// NewLevelVar returns a LevelVar set to the named level.
func NewLevelVar(s string) *LevelVar {
	lv := &LevelVar{}
	lv.Set(s)
	return lv
}

// Set changes the level. Unknown names select info.
func (lv *LevelVar) Set(s string) {
	lv.v.Set(parseLevel(s))
}

// Level implements slog.Leveler.
func (lv *LevelVar) Level() slog.Level {
	return lv.v.Level()
}

// DaemonLogger builds the daemon's logger. An empty logfile logs to
// stderr; the value "syslog" logs to the system log. The returned cleanup
// is nil when there is nothing to close.
func DaemonLogger(level, format, logfile string) (*slog.Logger, func(), error) {
	switch logfile {
	case "":
		cfg := LogConfig{Level: level, Format: format, Output: os.Stderr}
		if format == "" && term.IsTerminal(int(os.Stderr.Fd())) {
			cfg.Format = "text"
		}
		return New(cfg), nil, nil
	case "syslog":
		w, err := NewSyslogWriter()
		if err != nil {
			return nil, nil, err
		}
		logger := New(LogConfig{Level: level, Format: format, Output: w})
		return logger, func() { w.Close() }, nil
	}

	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file %s: %w", logfile, err)
	}
	logger := New(LogConfig{Level: level, Format: format, Output: f})
	return logger, func() { f.Close() }, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
