// Package observability provides logging, metrics, and tracing
// functionality for the rewrite gateway.
//
// This package implements the three pillars of observability:
// structured logging via zap, Prometheus metrics collection, and
// distributed tracing via OpenTelemetry with OTLP export.
//
// # Logging
//
// The Logger interface provides structured logging:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("path resolved",
//	    observability.String("rule", "show-detail-query"),
//	    observability.String("query", "p=show_detail&id=42"),
//	)
//
// # Metrics
//
// Prometheus metrics for HTTP requests, path resolutions, the
// upstream, and rate limiting:
//
//	metrics := observability.NewMetrics("prettygw")
//	handler := metrics.Handler()
//
// # Tracing
//
// OpenTelemetry distributed tracing with OTLP export:
//
//	tracer, err := observability.NewTracer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
//
// The tracing implementation uses W3C trace context propagation for
// cross-service trace correlation.
package observability
