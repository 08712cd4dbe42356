// Package logging builds the slog loggers used across typegraph and defines
// the diagnostic kinds attached to recoverable warnings.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// levelSilent is above every standard level.
const levelSilent = slog.Level(100)

// NewLogger creates a logger writing to w in the given format.
func NewLogger(w io.Writer, level slog.Level, format Format) *slog.Logger {
	return slog.New(NewHandler(w, level, format))
}

// NewHandler returns the handler NewLogger would use.
func NewHandler(w io.Writer, level slog.Level, format Format) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// NewDiscardLogger creates a logger that drops everything.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelSilent}))
}

// LevelFromString converts debug, info, warn or error (case-insensitive) to a
// slog.Level. Unknown strings map to info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
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

// LevelFromVerbosity converts CLI verbosity flags to a slog.Level.
//   - quiet=true: suppress everything
//   - verbosity=0: warn
//   - verbosity=1: info
//   - verbosity>=2: debug
func LevelFromVerbosity(verbosity int, quiet bool) slog.Level {
	if quiet {
		return levelSilent
	}
	switch verbosity {
	case 0:
		return slog.LevelWarn
	case 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// CountingHandler forwards records to the wrapped handler and reports the
// diagnostic kind of every warning record to count.
type CountingHandler struct {
	next  slog.Handler
	count func(kind string)
	kind  string // set when a WithAttrs call carried the diagnostic key
}

// NewCountingHandler wraps next.
func NewCountingHandler(next slog.Handler, count func(kind string)) *CountingHandler {
	return &CountingHandler{next: next, count: count}
}

// Enabled always accepts warnings so they are counted even when the wrapped
// handler filters them out.
func (h *CountingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn || h.next.Enabled(ctx, level)
}

func (h *CountingHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level == slog.LevelWarn {
		kind := h.kind
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == DiagnosticKey {
				kind = a.Value.String()
				return false
			}
			return true
		})
		if kind != "" {
			h.count(kind)
		}
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *CountingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	kind := h.kind
	for _, a := range attrs {
		if a.Key == DiagnosticKey {
			kind = a.Value.String()
		}
	}
	return &CountingHandler{next: h.next.WithAttrs(attrs), count: h.count, kind: kind}
}

func (h *CountingHandler) WithGroup(name string) slog.Handler {
	return &CountingHandler{next: h.next.WithGroup(name), count: h.count, kind: h.kind}
}
