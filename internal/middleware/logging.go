package middleware

import (
	"net/http"
	"time"

	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/util"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Flush implements http.Flusher interface for streaming support.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Logging returns a middleware that logs HTTP requests. It runs inside
// the rewrite handler, so r.URL already carries the rewritten target;
// the original catalog path and the matched rule are read from the
// request context.
func Logging(logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := util.ContextWithStartTime(r.Context(), start)
			r = r.WithContext(ctx)

			rw := &responseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			rule := util.RuleFromContext(r.Context())
			if rule == "" {
				rule = unmatchedRule
			}

			fields := []observability.Field{
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.String("rule", rule),
				observability.Int("status", rw.status),
				observability.Int("size", rw.size),
				observability.Duration("duration", duration),
				observability.String("client_ip", getClientIP(r)),
				observability.String("user_agent", r.UserAgent()),
				observability.String("request_id", util.RequestIDFromContext(r.Context())),
			}

			if original := util.OriginalPathFromContext(r.Context()); original != "" && original != r.URL.Path {
				fields = append(fields,
					observability.String("original_path", original),
				)
			}

			logger.Info("http request", fields...)
		})
	}
}

// getClientIP extracts the client IP from the request using the global
// extractor (secure default: only RemoteAddr, no header trust).
func getClientIP(r *http.Request) string {
	return globalExtractor.Extract(r)
}
