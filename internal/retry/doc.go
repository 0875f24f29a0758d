// Package retry provides exponential backoff retry functionality for
// the rewrite gateway.
//
// The gateway fronts a single legacy catalog application and an
// optional Redis cache; both are retried with short exponential
// backoff and jitter so that a transient connection failure does not
// surface as an error page.
//
// # Usage
//
// Execute an operation with retry:
//
//	cfg := retry.DefaultConfig()
//	err := retry.Do(ctx, cfg, func() error {
//	    return pingUpstream(ctx)
//	}, nil)
//
// Restrict which errors are retried and observe attempts:
//
//	err := retry.Do(ctx, cfg, op, &retry.Options{
//	    Operation:   "redis_get",
//	    ShouldRetry: retry.IsTransientNetworkError,
//	})
package retry
