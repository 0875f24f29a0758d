// Package cache stores rendered catalog pages so repeated visits to the
// same pretty URL skip the legacy application entirely. It supports:
//
//   - In-memory LRU cache with a configurable entry limit
//   - Redis-based shared cache for multi-instance deployments
//   - Configurable TTL with jitter to spread expiry
//   - Retry with exponential backoff around Redis commands
//   - OpenTelemetry tracing for cache operations
//   - Prometheus metrics
//
// Entries are keyed by the rewritten upstream request target, so two
// pretty paths that resolve to the same query string share one entry.
//
// # Example Usage
//
//	cfg := &config.CacheConfig{
//	    Enabled:    true,
//	    Type:       config.CacheTypeMemory,
//	    TTL:        config.Duration(time.Minute),
//	    MaxEntries: 4096,
//	}
//
//	c, err := cache.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	key := cache.GenerateSimpleKey(http.MethodGet, "/index.php?p=detail&id=42")
//	err = c.Set(ctx, key, pageBody, 0)
//	body, err := c.Get(ctx, key)
//
// # Thread Safety
//
// All cache implementations are safe for concurrent use.
package cache
