package main

import (
	"net/http"

	"github.com/openshelf/prettygw/internal/cache"
	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/gateway"
	"github.com/openshelf/prettygw/internal/middleware"
	"github.com/openshelf/prettygw/internal/observability"
)

// middlewareChainResult holds the result of building the middleware chain.
type middlewareChainResult struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// buildMiddlewareChain builds the middleware chain around the upstream
// handler. The execution order (outermost executes first):
// Recovery -> RequestID -> Tracing -> Rewrite -> Logging -> Metrics ->
// RateLimit -> CircuitBreaker -> Cache -> [upstream]
//
// Logging, metrics, and the cache run inside the rewrite middleware so
// they observe the resolved rule in the request context and the cache
// keys on the rewritten URL. Tracing runs outside it so the rewrite can
// attach resolution events to the live server span.
func buildMiddlewareChain(
	handler http.Handler,
	rewriter *gateway.Rewriter,
	cfg *config.Config,
	logger observability.Logger,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	cacheBackend cache.Cache,
) middlewareChainResult {
	h := handler
	var rateLimiter *middleware.RateLimiter

	if cacheBackend != nil {
		h = middleware.CacheFromConfig(cacheBackend, cfg.Spec.Cache, logger)(h)
	}

	if cfg.Spec.CircuitBreaker != nil && cfg.Spec.CircuitBreaker.Enabled {
		h = middleware.CircuitBreakerFromConfig(
			cfg.Spec.CircuitBreaker, logger,
			middleware.WithCircuitBreakerStateCallback(
				func(name string, state int) {
					metrics.SetCircuitBreakerState(name, state)
				},
			),
		)(h)
	}

	if cfg.Spec.RateLimit != nil && cfg.Spec.RateLimit.Enabled {
		var rateLimitMiddleware func(http.Handler) http.Handler
		rateLimitMiddleware, rateLimiter = middleware.RateLimitFromConfig(
			cfg.Spec.RateLimit, logger,
			middleware.WithRateLimiterRejectionHook(func(scope string) {
				metrics.RecordRateLimitHit(scope)
			}),
		)
		h = rateLimitMiddleware(h)
	}

	h = observability.MetricsMiddleware(metrics)(h)
	h = middleware.Logging(logger)(h)
	h = rewriter.Middleware()(h)
	h = observability.TracingMiddleware(tracer)(h)
	h = middleware.RequestID()(h)
	h = middleware.Recovery(logger)(h)

	return middlewareChainResult{
		handler:     h,
		rateLimiter: rateLimiter,
	}
}
