// Package health provides health check and readiness probe endpoints
// for the rewrite gateway.
//
// This package implements Kubernetes-compatible health and readiness
// endpoints with extensible check registration. The probes are served
// from the metrics server, next to /metrics.
//
// # Features
//
//   - Health endpoint with version and uptime (/health)
//   - Readiness probe endpoint running registered checks (/ready)
//   - Liveness probe endpoint (/live)
//   - Upstream TCP, cache, and rule table checks
//   - Per-check status gauge and probe counters
//
// # Usage
//
// Create a health checker and register checks:
//
//	checker := health.NewChecker(version)
//
//	checker.RegisterCheck("upstream", health.UpstreamCheck(cfg.Spec.Upstream.Address(), 2*time.Second))
//	checker.RegisterCheck("rules", health.RulesCheck(gw.ActiveRules))
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/health", checker.HealthHandler())
//	mux.HandleFunc("/ready", checker.ReadinessHandler())
//	mux.HandleFunc("/live", checker.LivenessHandler())
package health
