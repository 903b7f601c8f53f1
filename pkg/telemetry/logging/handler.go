package logging

import (
	"context"
	"log/slog"
)

// handler adds context fields to every record and redacts attributes before
// passing them to the wrapped handler.
type handler struct {
	next     slog.Handler
	redactor *Redactor
}

func newHandler(next slog.Handler, redactor *Redactor) *handler {
	return &handler{next: next, redactor: redactor}
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	out.Add(contextAttrs(ctx)...)

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(a)
		return true
	})

	if h.redactor != nil {
		redacted := slog.NewRecord(out.Time, out.Level, out.Message, out.PC)
		out.Attrs(func(a slog.Attr) bool {
			redacted.AddAttrs(h.redactor.RedactAttr(a))
			return true
		})
		out = redacted
	}

	return h.next.Handle(ctx, out)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if h.redactor != nil {
		redacted := make([]slog.Attr, len(attrs))
		for i, a := range attrs {
			redacted[i] = h.redactor.RedactAttr(a)
		}
		attrs = redacted
	}
	return &handler{next: h.next.WithAttrs(attrs), redactor: h.redactor}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{next: h.next.WithGroup(name), redactor: h.redactor}
}
