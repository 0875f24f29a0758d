package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/rewrite"
)

// testConfig returns a valid configuration listening on a random port.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Spec.Listener.Port = 0
	return cfg
}

// fakeSwapper records upstream swaps.
type fakeSwapper struct {
	calls []*config.UpstreamConfig
	err   error
}

func (f *fakeSwapper) SetUpstream(cfg *config.UpstreamConfig) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, cfg)
	return nil
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    State
		expected string
	}{
		{StateStopped, "stopped"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.state.String())
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	gw, err := New(testConfig())

	require.NoError(t, err)
	assert.NotNil(t, gw)
	assert.Equal(t, StateStopped, gw.State())
	assert.False(t, gw.IsRunning())
	assert.Equal(t, 30*time.Second, gw.shutdownTimeout)
}

func TestNew_NilConfig(t *testing.T) {
	t.Parallel()

	gw, err := New(nil)

	require.Error(t, err)
	assert.Nil(t, gw)
	assert.Contains(t, err.Error(), "configuration is required")
}

func TestNew_WithOptions(t *testing.T) {
	t.Parallel()

	logger := observability.NopLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	swapper := &fakeSwapper{}

	gw, err := New(testConfig(),
		WithLogger(logger),
		WithShutdownTimeout(5*time.Second),
		WithRouteHandler(handler),
		WithUpstream(swapper),
	)

	require.NoError(t, err)
	assert.Equal(t, logger, gw.logger)
	assert.Equal(t, 5*time.Second, gw.shutdownTimeout)
	assert.NotNil(t, gw.routeHandler)
	assert.Equal(t, swapper, gw.upstream)
}

func TestGateway_StartStop(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	gw, err := New(testConfig(), WithRouteHandler(handler))
	require.NoError(t, err)

	ctx := context.Background()

	err = gw.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, gw.State())
	assert.True(t, gw.IsRunning())
	assert.NotNil(t, gw.Engine())
	assert.NotNil(t, gw.Listener())

	time.Sleep(10 * time.Millisecond)
	assert.Positive(t, gw.Uptime())

	err = gw.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateStopped, gw.State())
	assert.False(t, gw.IsRunning())
}

func TestGateway_Start_AlreadyRunning(t *testing.T) {
	t.Parallel()

	gw, err := New(testConfig())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, gw.Start(ctx))
	defer func() { _ = gw.Stop(ctx) }()

	err = gw.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in stopped state")
}

func TestGateway_Start_ListenFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Spec.Listener.Bind = "256.256.256.256"

	gw, err := New(cfg)
	require.NoError(t, err)

	err = gw.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateStopped, gw.State())
}

func TestGateway_Stop_NotRunning(t *testing.T) {
	t.Parallel()

	gw, err := New(testConfig())
	require.NoError(t, err)

	err = gw.Stop(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestGateway_Uptime_BeforeStart(t *testing.T) {
	t.Parallel()

	gw, err := New(testConfig())
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), gw.Uptime())
}

func TestGateway_Reload(t *testing.T) {
	t.Parallel()

	gw, err := New(config.Default())
	require.NoError(t, err)

	next := config.Default()
	next.Metadata.Name = "reloaded"

	err = gw.Reload(next)
	require.NoError(t, err)
	assert.Equal(t, "reloaded", gw.Config().Metadata.Name)
}

func TestGateway_Reload_InvalidConfig(t *testing.T) {
	t.Parallel()

	gw, err := New(config.Default())
	require.NoError(t, err)

	next := config.Default()
	next.Kind = "NotAGateway"

	err = gw.Reload(next)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Equal(t, config.KindGateway, gw.Config().Kind)
}

func TestGateway_Reload_BadRule(t *testing.T) {
	t.Parallel()

	gw, err := New(config.Default())
	require.NoError(t, err)

	next := config.Default()
	next.Spec.Rewrite.Rules = []config.RewriteRule{
		{
			Name:  "broken",
			Match: config.RewriteMatch{Regex: "(unclosed"},
			Params: []config.RewriteParam{
				{Name: "p", Value: "x"},
			},
		},
	}

	err = gw.Reload(next)
	require.Error(t, err)
}

func TestGateway_Reload_SwapsRules(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	rules, err := rewrite.Compile(nil)
	require.NoError(t, err)
	rw := NewRewriter(cfg, rules)

	gw, err := New(cfg, WithRewriter(rw))
	require.NoError(t, err)
	require.Equal(t, 5, gw.ActiveRules())

	next := config.Default()
	next.Spec.Rewrite.Rules = []config.RewriteRule{
		{
			Name:  "search-by-type",
			Match: config.RewriteMatch{Template: "/search/{type}"},
			Params: []config.RewriteParam{
				{Name: "p", Value: "search"},
				{Name: "type", Value: "{type}"},
			},
		},
	}

	err = gw.Reload(next)
	require.NoError(t, err)
	assert.Equal(t, 6, gw.ActiveRules())
}

func TestGateway_Reload_SwapsUpstream(t *testing.T) {
	t.Parallel()

	swapper := &fakeSwapper{}
	gw, err := New(config.Default(), WithUpstream(swapper))
	require.NoError(t, err)

	next := config.Default()
	next.Spec.Upstream.Mode = config.UpstreamModeProxy
	next.Spec.Upstream.Host = "catalog.internal"
	next.Spec.Upstream.Port = 8080

	err = gw.Reload(next)
	require.NoError(t, err)
	require.Len(t, swapper.calls, 1)
	assert.Equal(t, "catalog.internal", swapper.calls[0].Host)
}

func TestGateway_Reload_EchoSkipsUpstreamSwap(t *testing.T) {
	t.Parallel()

	swapper := &fakeSwapper{}
	gw, err := New(config.Default(), WithUpstream(swapper))
	require.NoError(t, err)

	// Default config runs in echo mode.
	err = gw.Reload(config.Default())
	require.NoError(t, err)
	assert.Empty(t, swapper.calls)
}

func TestGateway_Reload_UpstreamSwapFailure(t *testing.T) {
	t.Parallel()

	swapper := &fakeSwapper{err: assert.AnError}
	gw, err := New(config.Default(), WithUpstream(swapper))
	require.NoError(t, err)

	next := config.Default()
	next.Metadata.Name = "next"
	next.Spec.Upstream.Mode = config.UpstreamModeProxy
	next.Spec.Upstream.Host = "catalog.internal"
	next.Spec.Upstream.Port = 8080

	err = gw.Reload(next)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to swap upstream")
	assert.NotEqual(t, "next", gw.Config().Metadata.Name,
		"a failed reload keeps the old configuration")
}

func TestGateway_ActiveRules_NoRewriter(t *testing.T) {
	t.Parallel()

	gw, err := New(config.Default())
	require.NoError(t, err)

	assert.Zero(t, gw.ActiveRules())
}

func TestGateway_ServesThroughRouteHandler(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	rules, err := rewrite.Compile(nil)
	require.NoError(t, err)
	rw := NewRewriter(cfg, rules)

	var gotPath, gotQuery string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	})

	listenCfg := testConfig()
	gw, err := New(listenCfg,
		WithRewriter(rw),
		WithRouteHandler(rw.Middleware()(inner)),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, gw.Start(ctx))
	defer func() { _ = gw.Stop(ctx) }()

	req := httptest.NewRequest(http.MethodGet, "/detail/42", nil)
	rec := httptest.NewRecorder()
	gw.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/index.php", gotPath)
	assert.Equal(t, "p=show_detail&id=42", gotQuery)
}
