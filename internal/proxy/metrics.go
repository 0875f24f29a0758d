package proxy

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// proxyMetrics contains Prometheus metrics for proxy operations.
type proxyMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

var (
	proxyMetricsInstance *proxyMetrics
	proxyMetricsOnce     sync.Once
)

// InitProxyMetrics initializes the singleton proxy metrics instance
// with the given Prometheus registry. If registry is nil, metrics are
// registered with the default registerer. Must be called before the
// first request; subsequent calls are no-ops (sync.Once).
func InitProxyMetrics(registry *prometheus.Registry) {
	proxyMetricsOnce.Do(func() {
		var registerer prometheus.Registerer
		if registry != nil {
			registerer = registry
		} else {
			registerer = prometheus.DefaultRegisterer
		}
		factory := promauto.With(registerer)
		proxyMetricsInstance = &proxyMetrics{
			requestsTotal: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "prettygw",
					Subsystem: "proxy",
					Name:      "requests_total",
					Help: "Total number of requests " +
						"forwarded to the upstream by status class",
				},
				[]string{"status"},
			),
			requestDuration: factory.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "prettygw",
					Subsystem: "proxy",
					Name:      "request_duration_seconds",
					Help: "Duration of upstream " +
						"requests by status class",
					Buckets: []float64{
						.001, .005, .01, .025,
						.05, .1, .25, .5,
						1, 2.5, 5, 10,
					},
				},
				[]string{"status"},
			),
			errorsTotal: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "prettygw",
					Subsystem: "proxy",
					Name:      "errors_total",
					Help: "Total number of " +
						"proxy errors by type",
				},
				[]string{"error_type"},
			),
		}
	})
}

// InitProxyVecMetrics pre-populates common label combinations with
// zero values so that proxy Vec metrics appear in /metrics output
// immediately after startup. Must be called after InitProxyMetrics.
func InitProxyVecMetrics() {
	m := getProxyMetrics()

	for _, class := range []string{"2xx", "3xx", "4xx", "5xx"} {
		m.requestsTotal.WithLabelValues(class)
		m.requestDuration.WithLabelValues(class)
	}

	errorTypes := []string{
		"connection_refused",
		"timeout",
		"network",
		"client_gone",
		"other",
	}
	for _, et := range errorTypes {
		m.errorsTotal.WithLabelValues(et)
	}
}

// getProxyMetrics returns the singleton proxy metrics instance.
// If InitProxyMetrics has not been called, metrics are lazily
// initialized with the default registerer.
func getProxyMetrics() *proxyMetrics {
	InitProxyMetrics(nil)
	return proxyMetricsInstance
}
