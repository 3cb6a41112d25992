package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	branchIDKey  contextKey = "branch_id"
	actorKey     contextKey = "actor"
)

// WithContext attaches a logger to ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger on ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request id on ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithBranchID stores the branch a request is scoped to
func WithBranchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, branchIDKey, id)
}

// WithActor stores who is acting (the verifier on verify/deny, for instance)
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// RequestID returns the request id on ctx
func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// BranchID returns the branch id on ctx
func BranchID(ctx context.Context) string { return stringValue(ctx, branchIDKey) }

// Actor returns the actor on ctx
func Actor(ctx context.Context) string { return stringValue(ctx, actorKey) }

func stringValue(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// L returns the context logger with trace and request fields attached.
// Usage: logger.L(ctx).Info("aggregated", zap.Int("records", n))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds trace_id, span_id, request_id, branch_id and actor from ctx to l
func Enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	fields := make([]zap.Field, 0, 5)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if v := RequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := BranchID(ctx); v != "" {
		fields = append(fields, zap.String("branch_id", v))
	}
	if v := Actor(ctx); v != "" {
		fields = append(fields, zap.String("actor", v))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
