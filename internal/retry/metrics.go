package retry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RetryMetrics holds Prometheus metrics for retry operations.
type RetryMetrics struct {
	attemptsTotal  *prometheus.CounterVec
	successTotal   *prometheus.CounterVec
	exhaustedTotal *prometheus.CounterVec
}

var (
	retryMetricsInstance *RetryMetrics
	retryMetricsOnce     sync.Once
)

// GetRetryMetrics returns the singleton retry metrics instance.
func GetRetryMetrics() *RetryMetrics {
	retryMetricsOnce.Do(func() {
		retryMetricsInstance = newRetryMetrics()
	})
	return retryMetricsInstance
}

// MustRegister registers all retry metric collectors with the given
// Prometheus registry. promauto registers with the default global
// registry; the gateway serves /metrics from its own registry, so this
// bridges the two.
func (m *RetryMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.attemptsTotal,
		m.successTotal,
		m.exhaustedTotal,
	)
}

// RecordAttempt records a single retry attempt for an operation.
func (m *RetryMetrics) RecordAttempt(operation string) {
	m.attemptsTotal.WithLabelValues(operation).Inc()
}

// RecordSuccess records an operation that succeeded after retrying.
func (m *RetryMetrics) RecordSuccess(operation string) {
	m.successTotal.WithLabelValues(operation).Inc()
}

// RecordExhausted records an operation that failed every attempt.
func (m *RetryMetrics) RecordExhausted(operation string) {
	m.exhaustedTotal.WithLabelValues(operation).Inc()
}

func newRetryMetrics() *RetryMetrics {
	return &RetryMetrics{
		attemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prettygw",
				Subsystem: "retry",
				Name:      "attempts_total",
				Help:      "Total number of retry attempts",
			},
			[]string{"operation"},
		),
		successTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prettygw",
				Subsystem: "retry",
				Name:      "success_total",
				Help: "Total number of operations that " +
					"succeeded after retrying",
			},
			[]string{"operation"},
		),
		exhaustedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prettygw",
				Subsystem: "retry",
				Name:      "exhausted_total",
				Help: "Total number of operations that " +
					"failed after all retry attempts",
			},
			[]string{"operation"},
		),
	}
}
