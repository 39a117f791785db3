package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Log attribute keys written by the avltree tools.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"
	KeyService = "service"
	KeyEnv     = "env"
	KeyMode    = "mode"
	KeyPhase   = "phase"
	KeyOp      = "op"
)

// logEventName is the span event recorded for warnings and errors.
const logEventName = "log"

type phaseKey struct{}

// WithPhase tags ctx with a bench phase. Records logged with the returned
// context carry a phase attribute.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey{}, phase)
}

// PhaseFromContext returns the phase set by WithPhase.
func PhaseFromContext(ctx context.Context) (string, bool) {
	phase, ok := ctx.Value(phaseKey{}).(string)

	return phase, ok && phase != ""
}

// OpAttr names a tree operation (OpInsert, OpOverwrite, OpRemove) in a record.
func OpAttr(op string) slog.Attr {
	return slog.String(KeyOp, op)
}

// Identity is the service metadata stamped on every record.
type Identity struct {
	Service string
	Env     string
	Mode    AppMode
}

func (id Identity) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String(KeyService, id.Service),
		slog.String(KeyMode, string(id.Mode)),
	}

	if id.Env != "" {
		attrs = append(attrs, slog.String(KeyEnv, id.Env))
	}

	return attrs
}

// LogOptions configures NewLogger.
type LogOptions struct {
	Identity

	// Writer defaults to os.Stderr.
	Writer io.Writer
	Level  slog.Leveler
	JSON   bool
}

// NewLogger builds the text or JSON logger used by avlctl, wrapped in a
// TracingHandler.
func NewLogger(opts LogOptions) *slog.Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var inner slog.Handler = slog.NewTextHandler(writer, handlerOpts)
	if opts.JSON {
		inner = slog.NewJSONHandler(writer, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, opts.Identity))
}

// TracingHandler is an [slog.Handler] that ties records to the current span
// and bench phase. The identity attributes are attached once, before any
// group, so they stay at the top level. Warnings and errors logged inside a
// recording span are also added to that span as events.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner.
func NewTracingHandler(inner slog.Handler, id Identity) *TracingHandler {
	return &TracingHandler{inner: inner.WithAttrs(id.attrs())}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace ids and the phase found in ctx, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanFromContext(ctx)

	if sc := span.SpanContext(); sc.IsValid() {
		record.AddAttrs(
			slog.String(KeyTraceID, sc.TraceID().String()),
			slog.String(KeySpanID, sc.SpanID().String()),
		)
	}

	if phase, ok := PhaseFromContext(ctx); ok {
		record.AddAttrs(slog.String(KeyPhase, phase))
	}

	if record.Level >= slog.LevelWarn && span.IsRecording() {
		span.AddEvent(logEventName, trace.WithAttributes(
			attribute.String("log.severity", record.Level.String()),
			attribute.String("log.message", record.Message),
		))
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
