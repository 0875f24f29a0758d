package util

import (
	"context"
	"time"
)

// Context keys.
type ctxKey string

const (
	ctxKeyRequestID    ctxKey = "request_id"
	ctxKeyTraceID      ctxKey = "trace_id"
	ctxKeySpanID       ctxKey = "span_id"
	ctxKeyStartTime    ctxKey = "start_time"
	ctxKeyRule         ctxKey = "rule"
	ctxKeyOriginalPath ctxKey = "original_path"
)

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// ContextWithTraceID adds a trace ID to the context.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKeyTraceID, traceID)
}

// TraceIDFromContext extracts the trace ID from context.
func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTraceID).(string); ok {
		return v
	}
	return ""
}

// ContextWithSpanID adds a span ID to the context.
func ContextWithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, ctxKeySpanID, spanID)
}

// SpanIDFromContext extracts the span ID from context.
func SpanIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySpanID).(string); ok {
		return v
	}
	return ""
}

// ContextWithStartTime adds a start time to the context.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the start time from context.
func StartTimeFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ctxKeyStartTime).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// ContextWithRule adds the matched rewrite rule name to the context.
func ContextWithRule(ctx context.Context, rule string) context.Context {
	return context.WithValue(ctx, ctxKeyRule, rule)
}

// RuleFromContext extracts the matched rewrite rule name from context.
func RuleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRule).(string); ok {
		return v
	}
	return ""
}

// ContextWithOriginalPath adds the pre-rewrite request path to the context.
func ContextWithOriginalPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ctxKeyOriginalPath, path)
}

// OriginalPathFromContext extracts the pre-rewrite request path from context.
func OriginalPathFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyOriginalPath).(string); ok {
		return v
	}
	return ""
}

// NewTimeoutContext creates a context with a timeout.
// Returns the context and a cancel function that should be deferred.
func NewTimeoutContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ElapsedTime returns the elapsed time since the start time in context.
func ElapsedTime(ctx context.Context) time.Duration {
	startTime := StartTimeFromContext(ctx)
	if startTime.IsZero() {
		return 0
	}
	return time.Since(startTime)
}
