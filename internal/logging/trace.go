// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// traceHandler stamps service metadata and the active span onto records.
type traceHandler struct {
	next slog.Handler
	meta []slog.Attr
}

func newTraceHandler(next slog.Handler, service, version string) *traceHandler {
	var meta []slog.Attr
	if service != "" {
		meta = append(meta, slog.String("service", service))
	}
	if version != "" {
		meta = append(meta, slog.String("version", version))
	}
	return &traceHandler{next: next, meta: meta}
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.meta...)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.next.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{next: h.next.WithAttrs(attrs), meta: h.meta}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{next: h.next.WithGroup(name), meta: h.meta}
}
