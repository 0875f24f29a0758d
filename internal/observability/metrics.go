package observability

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openshelf/prettygw/internal/util"
)

// unmatchedRule is the label value used for requests for which no
// rewrite rule has been recorded, ensuring bounded cardinality.
const unmatchedRule = "unmatched"

// inFlightRule is the label value used for tracking in-flight
// requests before the rewrite rule is known.
const inFlightRule = "in_flight"

// Resolution outcome label values.
const (
	OutcomeRewritten   = "rewritten"
	OutcomePassthrough = "passthrough"
	OutcomeBypass      = "bypass"
)

// Metrics holds all Prometheus metrics for the rewrite gateway.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestSize      *prometheus.HistogramVec
	responseSize     *prometheus.HistogramVec
	activeRequests   *prometheus.GaugeVec
	resolutionsTotal *prometheus.CounterVec
	resolveDuration  prometheus.Histogram
	upstreamHealth   *prometheus.GaugeVec
	circuitBreaker   *prometheus.GaugeVec
	rateLimitHits    *prometheus.CounterVec
	configReloads    *prometheus.CounterVec
	buildInfo        *prometheus.GaugeVec
	startTime        prometheus.Gauge
	registry         *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "prettygw"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "rule", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "rule", "status"},
	)

	m.requestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(
				100, 10, 8,
			),
		},
		[]string{"method", "rule"},
	)

	m.responseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(
				100, 10, 8,
			),
		},
		[]string{"method", "rule", "status"},
	)

	m.activeRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help: "Number of active HTTP " +
				"requests",
		},
		[]string{"method", "rule"},
	)

	m.resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewrite_resolutions_total",
			Help: "Total number of path resolutions " +
				"by matched rule and outcome",
		},
		[]string{"rule", "outcome"},
	)

	m.resolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rewrite_resolve_duration_seconds",
			Help:      "Path resolution duration in seconds",
			Buckets: []float64{
				.000001, .000005, .00001, .00005,
				.0001, .0005, .001, .005, .01,
			},
		},
	)

	m.upstreamHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_health",
			Help: "Upstream health status " +
				"(1=healthy, 0=unhealthy)",
		},
		[]string{"upstream", "host"},
	)

	m.circuitBreaker = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help: "Circuit breaker state " +
				"(0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	m.rateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help: "Total number of rate " +
				"limit hits",
		},
		[]string{"scope"},
	)

	m.configReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help: "Total number of configuration " +
				"reload attempts",
		},
		[]string{"outcome"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the gateway",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help: "Start time of the gateway " +
				"in unix seconds",
		},
	)

	m.registerCollectors()

	m.startTime.SetToCurrentTime()

	return m
}

// registerCollectors registers all metric collectors with the
// Prometheus registry.
func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.requestSize,
		m.responseSize,
		m.activeRequests,
		m.resolutionsTotal,
		m.resolveDuration,
		m.upstreamHealth,
		m.circuitBreaker,
		m.rateLimitHits,
		m.configReloads,
		m.buildInfo,
		m.startTime,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)
}

// InitVecMetrics pre-populates common label combinations with zero
// values so that Vec metrics appear in /metrics output immediately
// after startup. Prometheus *Vec types only emit metric lines after
// WithLabelValues() is called at least once. This method is idempotent.
func (m *Metrics) InitVecMetrics() {
	m.circuitBreaker.WithLabelValues("upstream")
	m.rateLimitHits.WithLabelValues("global")
	m.resolutionsTotal.WithLabelValues("passthrough", OutcomePassthrough)
	m.resolutionsTotal.WithLabelValues("bypass", OutcomeBypass)
	m.configReloads.WithLabelValues("success")
	m.configReloads.WithLabelValues("failure")
}

// RecordRequest records a completed HTTP request.
// The rule parameter should be the matched rewrite rule name, not the
// raw request path, to prevent cardinality explosion.
func (m *Metrics) RecordRequest(
	method, rule string,
	status int,
	duration time.Duration,
	reqSize, respSize int64,
) {
	statusStr := strconv.Itoa(status)

	m.requestsTotal.WithLabelValues(
		method, rule, statusStr,
	).Inc()
	m.requestDuration.WithLabelValues(
		method, rule, statusStr,
	).Observe(duration.Seconds())
	m.requestSize.WithLabelValues(
		method, rule,
	).Observe(float64(reqSize))
	m.responseSize.WithLabelValues(
		method, rule, statusStr,
	).Observe(float64(respSize))
}

// RecordResolution records a path resolution with its matched rule,
// outcome label, and resolve latency.
func (m *Metrics) RecordResolution(
	rule, outcome string,
	duration time.Duration,
) {
	m.resolutionsTotal.WithLabelValues(rule, outcome).Inc()
	m.resolveDuration.Observe(duration.Seconds())
}

// IncrementActiveRequests increments the active requests gauge.
func (m *Metrics) IncrementActiveRequests(
	method, rule string,
) {
	m.activeRequests.WithLabelValues(method, rule).Inc()
}

// DecrementActiveRequests decrements the active requests gauge.
func (m *Metrics) DecrementActiveRequests(
	method, rule string,
) {
	m.activeRequests.WithLabelValues(method, rule).Dec()
}

// SetUpstreamHealth sets the upstream health status.
func (m *Metrics) SetUpstreamHealth(
	upstream, host string, healthy bool,
) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.upstreamHealth.WithLabelValues(upstream, host).Set(value)
}

// SetCircuitBreakerState sets the circuit breaker state.
func (m *Metrics) SetCircuitBreakerState(
	name string, state int,
) {
	m.circuitBreaker.WithLabelValues(name).Set(float64(state))
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(
	version, commit, buildTime string,
) {
	m.buildInfo.WithLabelValues(
		version, commit, buildTime,
	).Set(1)
}

// RecordRateLimitHit records a rate limit hit.
// Uses a bounded scope label instead of client_ip to prevent unbounded
// cardinality. Client IP tracking should be done via logs.
func (m *Metrics) RecordRateLimitHit(scope string) {
	m.rateLimitHits.WithLabelValues(scope).Inc()
}

// RecordConfigReload records a configuration reload attempt.
func (m *Metrics) RecordConfigReload(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.configReloads.WithLabelValues(outcome).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterCollector registers an additional collector with the custom
// registry. It returns an error if the collector is already registered
// or conflicts with an existing one. This allows external packages to
// share the same registry that backs the /metrics endpoint.
func (m *Metrics) RegisterCollector(c prometheus.Collector) error {
	return m.registry.Register(c)
}

// MustRegisterCollector registers an additional collector with the
// custom registry, panicking on error.
func (m *Metrics) MustRegisterCollector(c prometheus.Collector) {
	m.registry.MustRegister(c)
}

// MetricsMiddleware returns a middleware that records metrics.
// It extracts the rule name from context (set by the rewrite
// middleware) instead of using the raw request path, preventing
// metrics cardinality explosion from dynamic path segments.
func MetricsMiddleware(
	metrics *Metrics,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				method := r.Method

				rw := &metricsResponseWriter{
					ResponseWriter: w,
					status:         http.StatusOK,
				}

				// Track active requests (rule already in context when
				// this middleware runs inside the rewrite middleware)
				metrics.activeRequests.WithLabelValues(
					method, inFlightRule,
				).Inc()

				next.ServeHTTP(rw, r)

				metrics.activeRequests.WithLabelValues(
					method, inFlightRule,
				).Dec()

				rule := ruleFromRequest(r)
				duration := time.Since(start)

				metrics.RecordRequest(
					method, rule, rw.status,
					duration,
					r.ContentLength, int64(rw.size),
				)
			},
		)
	}
}

// ruleFromRequest extracts the rewrite rule name from the request
// context. Returns unmatchedRule if no rule is set.
func ruleFromRequest(r *http.Request) string {
	rule := util.RuleFromContext(r.Context())
	if rule == "" {
		return unmatchedRule
	}
	return rule
}

// metricsResponseWriter wraps http.ResponseWriter to capture
// metrics.
type metricsResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

// WriteHeader captures the status code.
func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Flush implements http.Flusher interface for streaming support.
func (rw *metricsResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker interface for connection upgrades.
func (rw *metricsResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
