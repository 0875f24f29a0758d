package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/retry"
	"github.com/openshelf/prettygw/internal/util"
)

// hopHeaders are headers that should not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// upstream is the swap unit for hot reload: everything request handling
// reads about the target lives behind one atomic pointer so in-flight
// requests keep a consistent view.
type upstream struct {
	target          *url.URL
	passHostHeader  bool
	responseTimeout time.Duration
}

// UpstreamProxy proxies requests to the catalog application.
type UpstreamProxy struct {
	state          atomic.Pointer[upstream]
	rp             *httputil.ReverseProxy
	logger         observability.Logger
	transport      http.RoundTripper
	errorHandler   func(http.ResponseWriter, *http.Request, error)
	modifyResponse func(*http.Response) error
	flushInterval  time.Duration
}

// Option is a functional option for configuring the proxy.
type Option func(*UpstreamProxy)

// WithProxyLogger sets the logger for the proxy.
func WithProxyLogger(logger observability.Logger) Option {
	return func(p *UpstreamProxy) {
		p.logger = logger
	}
}

// WithTransport sets the transport for the proxy. Retry wrapping from
// the upstream configuration still applies on top of it.
func WithTransport(transport http.RoundTripper) Option {
	return func(p *UpstreamProxy) {
		p.transport = transport
	}
}

// WithErrorHandler sets the error handler for the proxy.
func WithErrorHandler(handler func(http.ResponseWriter, *http.Request, error)) Option {
	return func(p *UpstreamProxy) {
		p.errorHandler = handler
	}
}

// WithModifyResponse sets the response modifier for the proxy.
func WithModifyResponse(modifier func(*http.Response) error) Option {
	return func(p *UpstreamProxy) {
		p.modifyResponse = modifier
	}
}

// WithFlushInterval sets the flush interval for streaming responses.
func WithFlushInterval(interval time.Duration) Option {
	return func(p *UpstreamProxy) {
		p.flushInterval = interval
	}
}

// New creates a proxy for the configured upstream.
func New(cfg *config.UpstreamConfig, opts ...Option) (*UpstreamProxy, error) {
	p := &UpstreamProxy{
		logger:        observability.NopLogger(),
		flushInterval: -1, // Immediate flush
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.SetUpstream(cfg); err != nil {
		return nil, err
	}

	if p.transport == nil {
		p.transport = defaultTransport(cfg)
	}
	if cfg.Retry != nil && cfg.Retry.Enabled {
		p.transport = &retryTransport{
			base:   p.transport,
			cfg:    retryConfigFrom(cfg.Retry),
			logger: p.logger,
		}
	}
	if p.errorHandler == nil {
		p.errorHandler = p.defaultErrorHandler
	}

	p.rp = &httputil.ReverseProxy{
		Director:       p.director,
		Transport:      p.transport,
		FlushInterval:  p.flushInterval,
		ErrorHandler:   p.errorHandler,
		ModifyResponse: p.modifyResponse,
	}

	return p, nil
}

// defaultTransport builds the upstream transport with the configured
// dial timeout. Connection pooling stays at stdlib defaults; the OPAC
// is a single host and the pool never fans out.
func defaultTransport(cfg *config.UpstreamConfig) http.RoundTripper {
	dialTimeout := cfg.DialTimeout.Duration()
	if dialTimeout <= 0 {
		dialTimeout = config.DefaultDialTimeout
	}

	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// retryConfigFrom maps the upstream retry settings onto the retry
// package configuration.
func retryConfigFrom(cfg *config.RetryConfig) *retry.Config {
	return &retry.Config{
		MaxRetries:     cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff.Duration(),
		MaxBackoff:     cfg.MaxBackoff.Duration(),
	}
}

// SetUpstream swaps the upstream target. In-flight requests finish
// against the target they started with.
func (p *UpstreamProxy) SetUpstream(cfg *config.UpstreamConfig) error {
	if cfg == nil || cfg.Host == "" || cfg.Port <= 0 {
		return util.NewUpstreamError("catalog", "missing host or port")
	}

	target, err := url.Parse(cfg.URL())
	if err != nil {
		return util.NewUpstreamErrorWithCause("catalog", "invalid upstream URL", err)
	}

	p.state.Store(&upstream{
		target:          target,
		passHostHeader:  cfg.PassHostHeader,
		responseTimeout: cfg.ResponseTimeout.Duration(),
	})

	return nil
}

// Target returns the current upstream base URL.
func (p *UpstreamProxy) Target() *url.URL {
	return p.state.Load().target
}

// ServeHTTP implements http.Handler.
func (p *UpstreamProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := p.state.Load()

	if state.responseTimeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), state.responseTimeout)
		defer cancel()
		r = r.WithContext(ctx)
	}

	start := time.Now()
	rw := util.NewStatusCapturingResponseWriter(w)

	p.rp.ServeHTTP(rw, r)

	m := getProxyMetrics()
	class := statusClass(rw.StatusCode)
	m.requestsTotal.WithLabelValues(class).Inc()
	m.requestDuration.WithLabelValues(class).Observe(time.Since(start).Seconds())
}

// director rewrites the outbound request for the upstream. The request
// URL path and query were already set by the rewrite handler; only the
// addressing and forwarding headers change here.
func (p *UpstreamProxy) director(req *http.Request) {
	state := p.state.Load()

	req.URL.Scheme = state.target.Scheme
	req.URL.Host = state.target.Host

	// Remove hop-by-hop headers
	for _, h := range hopHeaders {
		req.Header.Del(h)
	}

	// Set X-Forwarded headers
	if clientIP, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		if prior := req.Header.Get("X-Forwarded-For"); prior != "" {
			clientIP = prior + ", " + clientIP
		}
		req.Header.Set("X-Forwarded-For", clientIP)
	}

	if req.TLS != nil {
		req.Header.Set("X-Forwarded-Proto", "https")
	} else {
		req.Header.Set("X-Forwarded-Proto", "http")
	}

	// req.Host still carries the client's Host here; record it before
	// deciding what the upstream sees.
	req.Header.Set("X-Forwarded-Host", req.Host)

	if !state.passHostHeader {
		req.Host = state.target.Host
	}
}

// defaultErrorHandler is the default error handler.
func (p *UpstreamProxy) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	// The client went away; nothing useful can be written.
	if errors.Is(err, context.Canceled) {
		getProxyMetrics().errorsTotal.WithLabelValues("client_gone").Inc()
		return
	}

	p.logger.Error("proxy error",
		observability.String("path", r.URL.Path),
		observability.String("method", r.Method),
		observability.Error(err),
	)

	getProxyMetrics().errorsTotal.WithLabelValues(errorType(err)).Inc()

	w.Header().Set("Content-Type", "application/json")
	if errors.Is(err, context.DeadlineExceeded) {
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = io.WriteString(w, `{"error":"gateway timeout","message":"upstream did not respond in time"}`)
		return
	}
	w.WriteHeader(http.StatusBadGateway)
	_, _ = io.WriteString(w, `{"error":"bad gateway","message":"failed to reach catalog upstream"}`)
}

// errorType classifies a proxy error for the errors_total metric.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case isConnectionRefused(err):
		return "connection_refused"
	case retry.IsTransientNetworkError(err):
		return "network"
	default:
		return "other"
	}
}

// isConnectionRefused reports whether the error chain contains a
// refused connection.
func isConnectionRefused(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

// statusClass buckets a status code for metric labels.
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Handler returns an http.Handler for the proxy.
func (p *UpstreamProxy) Handler() http.Handler {
	return p
}

// retryTransport replays idempotent bodyless requests when the
// transport fails before any response arrives. A response from the
// upstream, whatever its status, is never retried.
type retryTransport struct {
	base   http.RoundTripper
	cfg    *retry.Config
	logger observability.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !retry.IsIdempotent(req.Method) || (req.Body != nil && req.Body != http.NoBody) {
		return t.base.RoundTrip(req)
	}

	var resp *http.Response
	err := retry.Do(req.Context(), t.cfg, func() error {
		r, rtErr := t.base.RoundTrip(req)
		if rtErr != nil {
			return rtErr
		}
		resp = r
		return nil
	}, &retry.Options{
		Operation:   "upstream",
		ShouldRetry: retry.IsTransientNetworkError,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			t.logger.Warn("retrying upstream request",
				observability.String("method", req.Method),
				observability.String("path", req.URL.Path),
				observability.Int("attempt", attempt),
				observability.Duration("backoff", backoff),
				observability.Error(err),
			)
		},
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
