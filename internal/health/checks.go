package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/openshelf/prettygw/internal/cache"
)

// UpstreamCheck reports whether the catalog upstream accepts TCP
// connections. An unreachable upstream makes the gateway not ready:
// every non-bypass request would end in a 502.
func UpstreamCheck(address string, timeout time.Duration) CheckFunc {
	return func(ctx context.Context) Check {
		dialer := &net.Dialer{
			Timeout: timeout,
		}

		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return Check{
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("upstream unreachable: %v", err),
			}
		}
		_ = conn.Close()

		return Check{Status: StatusHealthy, Message: "upstream reachable"}
	}
}

// CacheCheck probes the response cache backend. A cache outage only
// degrades readiness: the gateway keeps serving, every request just
// goes to the upstream.
func CacheCheck(c cache.Cache) CheckFunc {
	return func(ctx context.Context) Check {
		if c == nil {
			return Check{Status: StatusHealthy, Message: "cache disabled"}
		}

		if _, err := c.Exists(ctx, "health:probe"); err != nil {
			return Check{
				Status:  StatusDegraded,
				Message: fmt.Sprintf("cache unreachable: %v", err),
			}
		}

		return Check{Status: StatusHealthy, Message: "cache reachable"}
	}
}

// RulesCheck reports how many rewrite rules are active. An empty table
// is not an error, the gateway passes everything through unchanged,
// but it usually means a reload went wrong, so it degrades readiness.
func RulesCheck(activeRules func() int) CheckFunc {
	return func(ctx context.Context) Check {
		n := activeRules()
		if n == 0 {
			return Check{
				Status:  StatusDegraded,
				Message: "no rewrite rules active, passing all requests through",
			}
		}

		return Check{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%d rewrite rules active", n),
		}
	}
}
