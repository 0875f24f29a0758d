package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/retry"
)

// upstreamConfigFor builds an upstream configuration pointing at a
// test server URL.
func upstreamConfigFor(t *testing.T, serverURL string) *config.UpstreamConfig {
	t.Helper()

	u, err := url.Parse(serverURL)
	require.NoError(t, err)

	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return &config.UpstreamConfig{
		Scheme: u.Scheme,
		Host:   host,
		Port:   port,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := &config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080}

	p, err := New(cfg)

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "http://opac.internal:8080", p.Target().String())
	assert.NotNil(t, p.transport)
	assert.NotNil(t, p.errorHandler)
	assert.NotNil(t, p.rp)
}

func TestNew_InvalidUpstream(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *config.UpstreamConfig
	}{
		{name: "nil config", cfg: nil},
		{
			name: "missing host",
			cfg:  &config.UpstreamConfig{Scheme: "http", Port: 8080},
		},
		{
			name: "zero port",
			cfg:  &config.UpstreamConfig{Scheme: "http", Host: "opac.internal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := New(tt.cfg)

			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), "missing host or port")
		})
	}
}

func TestNew_WithOptions(t *testing.T) {
	t.Parallel()

	logger := observability.NopLogger()
	cfg := &config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080}

	p, err := New(cfg,
		WithProxyLogger(logger),
		WithFlushInterval(100*time.Millisecond),
	)

	require.NoError(t, err)
	assert.Equal(t, logger, p.logger)
	assert.Equal(t, 100*time.Millisecond, p.flushInterval)
}

func TestNew_WithTransport(t *testing.T) {
	t.Parallel()

	transport := &http.Transport{}
	cfg := &config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080}

	p, err := New(cfg, WithTransport(transport))

	require.NoError(t, err)
	assert.Equal(t, transport, p.transport)
}

func TestNew_RetryWrapsTransport(t *testing.T) {
	t.Parallel()

	cfg := &config.UpstreamConfig{
		Scheme: "http",
		Host:   "opac.internal",
		Port:   8080,
		Retry: &config.RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
		},
	}

	p, err := New(cfg)

	require.NoError(t, err)
	rt, ok := p.transport.(*retryTransport)
	require.True(t, ok, "transport should be wrapped for retries")
	assert.Equal(t, 3, rt.cfg.GetMaxRetries())
}

func TestNew_WithErrorHandler(t *testing.T) {
	t.Parallel()

	called := false
	handler := func(w http.ResponseWriter, r *http.Request, err error) {
		called = true
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := upstreamConfigFor(t, srv.URL)
	srv.Close()

	p, err := New(cfg, WithErrorHandler(handler))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNew_WithModifyResponse(t *testing.T) {
	t.Parallel()

	modifier := func(resp *http.Response) error {
		resp.Header.Set("X-Catalog", "opac")
		return nil
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := New(upstreamConfigFor(t, srv.URL), WithModifyResponse(modifier))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "opac", rec.Header().Get("X-Catalog"))
}

func TestUpstreamProxy_SetUpstream(t *testing.T) {
	t.Parallel()

	p, err := New(&config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080})
	require.NoError(t, err)

	err = p.SetUpstream(&config.UpstreamConfig{Scheme: "https", Host: "catalog.internal", Port: 8443})
	require.NoError(t, err)

	assert.Equal(t, "https://catalog.internal:8443", p.Target().String())
}

func TestUpstreamProxy_SetUpstream_Invalid(t *testing.T) {
	t.Parallel()

	p, err := New(&config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080})
	require.NoError(t, err)

	err = p.SetUpstream(&config.UpstreamConfig{Scheme: "http", Port: 8080})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing host or port")
	assert.Equal(t, "http://opac.internal:8080", p.Target().String(), "failed swap keeps the old target")
}

func TestUpstreamProxy_ServeHTTP_ForwardsToUpstream(t *testing.T) {
	t.Parallel()

	var seen struct {
		path  string
		query string
		host  string
		xff   string
		xfp   string
		xfh   string
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.query = r.URL.RawQuery
		seen.host = r.Host
		seen.xff = r.Header.Get("X-Forwarded-For")
		seen.xfp = r.Header.Get("X-Forwarded-Proto")
		seen.xfh = r.Header.Get("X-Forwarded-Host")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "<html>catalog</html>")
	}))
	defer srv.Close()

	cfg := upstreamConfigFor(t, srv.URL)
	p, err := New(cfg, WithProxyLogger(observability.NopLogger()))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/index.php?p=show_detail&id=12", nil)
	req.Host = "library.example.org"
	req.RemoteAddr = "192.168.1.10:41000"
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>catalog</html>", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	assert.Equal(t, "/index.php", seen.path)
	assert.Equal(t, "p=show_detail&id=12", seen.query)
	assert.Equal(t, cfg.Address(), seen.host, "upstream sees its own host by default")
	assert.Equal(t, "192.168.1.10", seen.xff)
	assert.Equal(t, "http", seen.xfp)
	assert.Equal(t, "library.example.org", seen.xfh)
}

func TestUpstreamProxy_ServeHTTP_PassHostHeader(t *testing.T) {
	t.Parallel()

	var seenHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHost = r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := upstreamConfigFor(t, srv.URL)
	cfg.PassHostHeader = true

	p, err := New(cfg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil)
	req.Host = "library.example.org"
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "library.example.org", seenHost)
}

func TestUpstreamProxy_ServeHTTP_UpstreamDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := upstreamConfigFor(t, srv.URL)
	srv.Close()

	p, err := New(cfg, WithProxyLogger(observability.NopLogger()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad gateway","message":"failed to reach catalog upstream"}`, rec.Body.String())
}

func TestUpstreamProxy_ServeHTTP_ResponseTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	cfg := upstreamConfigFor(t, srv.URL)
	cfg.ResponseTimeout = config.Duration(50 * time.Millisecond)

	p, err := New(cfg, WithProxyLogger(observability.NopLogger()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.JSONEq(t, `{"error":"gateway timeout","message":"upstream did not respond in time"}`, rec.Body.String())
}

func TestUpstreamProxy_ServeHTTP_ClientGone(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := New(upstreamConfigFor(t, srv.URL), WithProxyLogger(observability.NopLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	assert.Zero(t, rec.Body.Len(), "nothing is written when the client is gone")
}

func TestUpstreamProxy_ServeHTTP_SwapBetweenRequests(t *testing.T) {
	t.Parallel()

	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "from-a")
	}))
	defer srvA.Close()

	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "from-b")
	}))
	defer srvB.Close()

	p, err := New(upstreamConfigFor(t, srvA.URL))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil))
	assert.Equal(t, "from-a", rec.Body.String())

	require.NoError(t, p.SetUpstream(upstreamConfigFor(t, srvB.URL)))

	rec = httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil))
	assert.Equal(t, "from-b", rec.Body.String())
}

func TestUpstreamProxy_Director(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		cfg             *config.UpstreamConfig
		remoteAddr      string
		priorXFF        string
		useTLS          bool
		reqHost         string
		expectedScheme  string
		expectedHost    string
		expectedXFF     string
		expectedXFP     string
		expectedXFH     string
		expectedReqHost string
	}{
		{
			name:            "basic forwarding headers",
			cfg:             &config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080},
			remoteAddr:      "192.168.1.10:41000",
			reqHost:         "library.example.org",
			expectedScheme:  "http",
			expectedHost:    "opac.internal:8080",
			expectedXFF:     "192.168.1.10",
			expectedXFP:     "http",
			expectedXFH:     "library.example.org",
			expectedReqHost: "opac.internal:8080",
		},
		{
			name:            "appends to existing X-Forwarded-For",
			cfg:             &config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080},
			remoteAddr:      "192.168.1.10:41000",
			priorXFF:        "10.0.0.1",
			reqHost:         "library.example.org",
			expectedScheme:  "http",
			expectedHost:    "opac.internal:8080",
			expectedXFF:     "10.0.0.1, 192.168.1.10",
			expectedXFP:     "http",
			expectedXFH:     "library.example.org",
			expectedReqHost: "opac.internal:8080",
		},
		{
			name:            "TLS sets https proto",
			cfg:             &config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080},
			remoteAddr:      "10.0.0.1:54321",
			useTLS:          true,
			reqHost:         "library.example.org",
			expectedScheme:  "http",
			expectedHost:    "opac.internal:8080",
			expectedXFF:     "10.0.0.1",
			expectedXFP:     "https",
			expectedXFH:     "library.example.org",
			expectedReqHost: "opac.internal:8080",
		},
		{
			name: "pass host header keeps client host",
			cfg: &config.UpstreamConfig{
				Scheme: "http", Host: "opac.internal", Port: 8080,
				PassHostHeader: true,
			},
			remoteAddr:      "192.168.1.10:41000",
			reqHost:         "library.example.org",
			expectedScheme:  "http",
			expectedHost:    "opac.internal:8080",
			expectedXFF:     "192.168.1.10",
			expectedXFP:     "http",
			expectedXFH:     "library.example.org",
			expectedReqHost: "library.example.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := New(tt.cfg)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/index.php?p=show_detail&id=12", nil)
			req.Host = tt.reqHost
			req.RemoteAddr = tt.remoteAddr
			if tt.priorXFF != "" {
				req.Header.Set("X-Forwarded-For", tt.priorXFF)
			}
			if tt.useTLS {
				req.TLS = &tls.ConnectionState{}
			}

			p.director(req)

			assert.Equal(t, tt.expectedScheme, req.URL.Scheme)
			assert.Equal(t, tt.expectedHost, req.URL.Host)
			assert.Equal(t, "/index.php", req.URL.Path, "director leaves the rewritten path alone")
			assert.Equal(t, "p=show_detail&id=12", req.URL.RawQuery)
			assert.Equal(t, tt.expectedXFF, req.Header.Get("X-Forwarded-For"))
			assert.Equal(t, tt.expectedXFP, req.Header.Get("X-Forwarded-Proto"))
			assert.Equal(t, tt.expectedXFH, req.Header.Get("X-Forwarded-Host"))
			assert.Equal(t, tt.expectedReqHost, req.Host)
		})
	}
}

func TestUpstreamProxy_Director_RemovesHopHeaders(t *testing.T) {
	t.Parallel()

	p, err := New(&config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil)
	for _, h := range hopHeaders {
		req.Header.Set(h, "value")
	}
	req.Header.Set("Accept", "text/html")

	p.director(req)

	for _, h := range hopHeaders {
		assert.Empty(t, req.Header.Get(h), "hop header %s should be removed", h)
	}
	assert.Equal(t, "text/html", req.Header.Get("Accept"), "end-to-end headers survive")
}

func TestHopHeaders(t *testing.T) {
	t.Parallel()

	expected := []string{
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

	assert.Equal(t, expected, hopHeaders)
}

func TestUpstreamProxy_Handler(t *testing.T) {
	t.Parallel()

	p, err := New(&config.UpstreamConfig{Scheme: "http", Host: "opac.internal", Port: 8080})
	require.NoError(t, err)

	assert.Equal(t, http.Handler(p), p.Handler())
}

func TestErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			expected: "timeout",
		},
		{
			name:     "dial refused",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			expected: "connection_refused",
		},
		{
			name:     "connection reset mid-read",
			err:      &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
			expected: "network",
		},
		{
			name:     "unexpected EOF",
			err:      io.ErrUnexpectedEOF,
			expected: "network",
		},
		{
			name:     "unclassified",
			err:      errors.New("boom"),
			expected: "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, errorType(tt.err))
		})
	}
}

func TestStatusClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     int
		expected string
	}{
		{code: 200, expected: "2xx"},
		{code: 204, expected: "2xx"},
		{code: 301, expected: "3xx"},
		{code: 404, expected: "4xx"},
		{code: 500, expected: "5xx"},
		{code: 502, expected: "5xx"},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.code), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, statusClass(tt.code))
		})
	}
}

// flakyRoundTripper fails the first failures calls with err, then
// returns an HTTP response.
type flakyRoundTripper struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	status   int
}

func (f *flakyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("ok")),
		Request:    req,
	}, nil
}

func (f *flakyRoundTripper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testRetryConfig() *retry.Config {
	return &retry.Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		JitterFactor:   0.01,
	}
}

func TestRetryTransport_RetriesTransientError(t *testing.T) {
	t.Parallel()

	base := &flakyRoundTripper{
		failures: 1,
		err:      &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
		status:   http.StatusOK,
	}
	rt := &retryTransport{base: base, cfg: testRetryConfig(), logger: observability.NopLogger()}

	req := httptest.NewRequest(http.MethodGet, "http://opac.internal:8080/index.php?p=start", nil)
	resp, err := rt.RoundTrip(req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, base.callCount(), "first attempt plus one retry")
}

func TestRetryTransport_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	base := &flakyRoundTripper{
		failures: 10,
		err:      &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
	}
	rt := &retryTransport{base: base, cfg: testRetryConfig(), logger: observability.NopLogger()}

	req := httptest.NewRequest(http.MethodGet, "http://opac.internal:8080/index.php?p=start", nil)
	resp, err := rt.RoundTrip(req)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 3, base.callCount(), "initial attempt plus MaxRetries")
}

func TestRetryTransport_NonIdempotentPassthrough(t *testing.T) {
	t.Parallel()

	base := &flakyRoundTripper{
		failures: 10,
		err:      &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
	}
	rt := &retryTransport{base: base, cfg: testRetryConfig(), logger: observability.NopLogger()}

	req := httptest.NewRequest(http.MethodPost, "http://opac.internal:8080/index.php", strings.NewReader("q=jazz"))
	resp, err := rt.RoundTrip(req)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 1, base.callCount(), "POST is never replayed")
}

func TestRetryTransport_BodyPassthrough(t *testing.T) {
	t.Parallel()

	base := &flakyRoundTripper{
		failures: 10,
		err:      &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
	}
	rt := &retryTransport{base: base, cfg: testRetryConfig(), logger: observability.NopLogger()}

	req := httptest.NewRequest(http.MethodGet, "http://opac.internal:8080/index.php", strings.NewReader("payload"))
	resp, err := rt.RoundTrip(req)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 1, base.callCount(), "a consumed body cannot be replayed")
}

func TestRetryTransport_ResponseNeverRetried(t *testing.T) {
	t.Parallel()

	base := &flakyRoundTripper{status: http.StatusInternalServerError}
	rt := &retryTransport{base: base, cfg: testRetryConfig(), logger: observability.NopLogger()}

	req := httptest.NewRequest(http.MethodGet, "http://opac.internal:8080/index.php?p=start", nil)
	resp, err := rt.RoundTrip(req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1, base.callCount(), "a 5xx from the catalog is a response, not a transport failure")
}

func TestUpstreamProxy_ServeHTTP_RetryAgainstFlakyUpstream(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		first := attempts == 1
		mu.Unlock()

		if first {
			// Kill the connection without a response.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		_, _ = io.WriteString(w, "recovered")
	}))
	defer srv.Close()

	cfg := upstreamConfigFor(t, srv.URL)
	cfg.Retry = &config.RetryConfig{
		Enabled:        true,
		MaxAttempts:    2,
		InitialBackoff: config.Duration(time.Millisecond),
		MaxBackoff:     config.Duration(5 * time.Millisecond),
	}

	p, err := New(cfg, WithProxyLogger(observability.NopLogger()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.php?p=start", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "recovered", rec.Body.String())

	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()
}
