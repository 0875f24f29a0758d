// Package middleware provides HTTP middleware components for the
// rewrite gateway.
//
// This package implements the middleware that wraps the rewrite and
// proxy pipeline for traffic management and observability.
//
// # Middleware Components
//
//   - Request ID: unique request identifier injection
//   - Logging: structured request/response logging
//   - Recovery: panic recovery with stack trace logging
//   - Rate Limiting: token bucket rate limiter, optionally per client
//   - Circuit Breaker: upstream circuit breaking
//   - Cache: GET response caching keyed on the rewritten upstream URL
//   - Client IP: trusted proxy-aware client IP extraction
//
// # Usage
//
// Middleware functions follow the standard Go pattern:
//
//	handler := middleware.Logging(logger)(
//	    middleware.Recovery(logger)(
//	        middleware.RequestID()(yourHandler),
//	    ),
//	)
package middleware
