package logging

import (
	"context"
	"log/slog"
	"strings"
)

// RedactedValue replaces the value of redacted attributes.
const RedactedValue = "[redacted]"

// DefaultRedactedKeys are the attribute keys that never reach the log output.
//
//nolint:gochecknoglobals
var DefaultRedactedKeys = []string{"token", "authorization", "password"}

// RedactingHandler wraps another slog.Handler and masks the values of
// attributes whose key matches one of the configured keys, case-insensitively
// and at any group depth.
type RedactingHandler struct {
	h    slog.Handler
	keys map[string]struct{}
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler creates a new RedactingHandler wrapping the given handler.
func NewRedactingHandler(h slog.Handler, keys ...string) *RedactingHandler {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[strings.ToLower(key)] = struct{}{}
	}

	return &RedactingHandler{h: h, keys: set}
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))

		return true
	})

	//nolint:wrapcheck
	return h.h.Handle(ctx, out)
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	if _, ok := h.keys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, RedactedValue)
	}

	if a.Value.Kind() != slog.KindGroup {
		return a
	}

	group := a.Value.Group()
	attrs := make([]slog.Attr, 0, len(group))

	for _, ga := range group {
		attrs = append(attrs, h.redact(ga))
	}

	return slog.Attr{Key: a.Key, Value: slog.GroupValue(attrs...)}
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		redacted = append(redacted, h.redact(a))
	}

	return &RedactingHandler{h: h.h.WithAttrs(redacted), keys: h.keys}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *RedactingHandler) WithGroup(name string) Handler {
	return &RedactingHandler{h: h.h.WithGroup(name), keys: h.keys}
}

// Enabled implements slog.Handler.Enabled.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
