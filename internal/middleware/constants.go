package middleware

// unmatchedRule is the fallback label value used when no rewrite rule
// name is available in the request context.
const unmatchedRule = "unmatched"

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderCacheControl is the Cache-Control header name.
	HeaderCacheControl = "Cache-Control"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderXCache is the X-Cache header name, set to HIT when a
	// response is served from cache.
	HeaderXCache = "X-Cache"

	// HeaderXForwardedFor is the X-Forwarded-For header name.
	HeaderXForwardedFor = "X-Forwarded-For"

	// HeaderXForwardedProto is the X-Forwarded-Proto header name.
	HeaderXForwardedProto = "X-Forwarded-Proto"

	// HeaderXForwardedHost is the X-Forwarded-Host header name.
	HeaderXForwardedHost = "X-Forwarded-Host"

	// HeaderXRealIP is the X-Real-IP header name.
	HeaderXRealIP = "X-Real-IP"
)

// Content type constants.
const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"

	// ContentTypeHTML is the HTML content type.
	ContentTypeHTML = "text/html"

	// ContentTypeTextPlain is the plain text content type.
	ContentTypeTextPlain = "text/plain"
)

// Error response constants.
const (
	// ErrRateLimitExceeded is the error message for rate limit exceeded.
	ErrRateLimitExceeded = `{"error":"rate limit exceeded"}`

	// ErrServiceUnavailable is the error message for service unavailable.
	ErrServiceUnavailable = `{"error":"service unavailable","message":"circuit breaker open"}`

	// ErrBadGateway is the error message for bad gateway.
	ErrBadGateway = `{"error":"bad gateway","message":"upstream unreachable"}`

	// ErrInternalServerError is the error message for internal server error.
	ErrInternalServerError = `{"error":"internal server error"}`
)
