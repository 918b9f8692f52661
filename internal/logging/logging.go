// Package logging constructs the slog loggers used across the pipeline.
package logging

import (
	"io"
	"log/slog"
)

// Mode controls the handler style used when constructing a logger.
type Mode int

const (
	// ModeText renders log records in a text-oriented format for terminals.
	ModeText Mode = iota
	// ModeJSON renders log records as JSON for machine consumption.
	ModeJSON
)

// New constructs a logger targeting the provided writer using the requested
// mode. If level is nil, slog.LevelInfo is used.
func New(mode Mode, w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		panic("logging: writer must not be nil")
	}
	if level == nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	switch mode {
	case ModeJSON:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

// NewText constructs a logger that emits human-readable records for CLI use.
func NewText(w io.Writer, level slog.Leveler) *slog.Logger {
	return New(ModeText, w, level)
}

// NewJSON constructs a logger that emits structured JSON records.
func NewJSON(w io.Writer, level slog.Leveler) *slog.Logger {
	return New(ModeJSON, w, level)
}

// Ensure returns the provided logger or the process default if nil.
func Ensure(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
