package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type sessionKey struct{}

// sessionPrefixLen bounds how much of a session id reaches the logs.
const sessionPrefixLen = 8

// NewLogger returns a JSON logger that stamps each record with the active
// trace, span and session identifiers. A nil writer logs to stdout.
func NewLogger(level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	base := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(&contextHandler{base: base})
}

// ParseLevel maps LOG_LEVEL values onto slog levels.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}

// WithSessionID attaches the caller's session to ctx for log correlation.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

func sessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionKey{}).(string)
	if len(id) > sessionPrefixLen {
		id = id[:sessionPrefixLen]
	}
	return id
}

// contextHandler resolves context attributes at Handle time, ahead of any
// groups opened on the logger, so they always land at the top level.
// WithAttrs and WithGroup calls are recorded and replayed in order.
type contextHandler struct {
	base slog.Handler
	ops  []handlerOp
}

type handlerOp struct {
	attrs []slog.Attr
	group string
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	var ctxAttrs []slog.Attr
	if traceID := TraceID(ctx); traceID != "" {
		ctxAttrs = append(ctxAttrs, slog.String("trace_id", traceID))
	}
	if spanID := SpanID(ctx); spanID != "" {
		ctxAttrs = append(ctxAttrs, slog.String("span_id", spanID))
	}
	if session := sessionFromContext(ctx); session != "" {
		ctxAttrs = append(ctxAttrs, slog.String("session", session))
	}

	handler := h.base
	if len(ctxAttrs) > 0 {
		handler = handler.WithAttrs(ctxAttrs)
	}
	for _, op := range h.ops {
		if op.group != "" {
			handler = handler.WithGroup(op.group)
			continue
		}
		handler = handler.WithAttrs(op.attrs)
	}
	return handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(handlerOp{attrs: attrs})
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(handlerOp{group: name})
}

func (h *contextHandler) with(op handlerOp) *contextHandler {
	ops := make([]handlerOp, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &contextHandler{base: h.base, ops: append(ops, op)}
}
