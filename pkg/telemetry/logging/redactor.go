package logging

import (
	"context"
	"log/slog"
)

// redactedValue replaces sensitive attribute values in log output.
const redactedValue = "[redacted]"

// sensitiveKeys are attribute keys whose values may contain raw
// command text, and with it anything an operator pasted into a
// request.
var sensitiveKeys = map[string]bool{
	"command":  true,
	"raw_text": true,
	"text":     true,
}

// RedactingHandler wraps a slog.Handler and blanks sensitive
// attribute values on records above debug level. Debug output keeps
// the originals for local troubleshooting.
type RedactingHandler struct {
	inner slog.Handler
}

// NewRedactingHandler wraps the given handler.
func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level <= slog.LevelDebug {
		return h.inner.Handle(ctx, record)
	}

	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if sensitiveKeys[a.Key] {
		return slog.String(a.Key, redactedValue)
	}
	return a
}
