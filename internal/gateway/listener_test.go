package gateway

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewListener(t *testing.T) {
	t.Parallel()

	cfg := config.ListenerConfig{
		Name: "test-listener",
		Port: 8080,
	}

	listener, err := NewListener(cfg, okHandler())

	require.NoError(t, err)
	assert.NotNil(t, listener)
	assert.Equal(t, cfg, listener.config)
	assert.NotNil(t, listener.handler)
}

func TestNewListener_WithLogger(t *testing.T) {
	t.Parallel()

	cfg := config.ListenerConfig{
		Name: "test-listener",
		Port: 8080,
	}

	logger := observability.NopLogger()

	listener, err := NewListener(cfg, okHandler(), WithListenerLogger(logger))

	require.NoError(t, err)
	assert.Equal(t, logger, listener.logger)
}

func TestListener_Name(t *testing.T) {
	t.Parallel()

	listener, err := NewListener(config.ListenerConfig{Name: "http", Port: 8080}, okHandler())
	require.NoError(t, err)

	assert.Equal(t, "http", listener.Name())
}

func TestListener_Port(t *testing.T) {
	t.Parallel()

	listener, err := NewListener(config.ListenerConfig{Name: "http", Port: 9090}, okHandler())
	require.NoError(t, err)

	assert.Equal(t, 9090, listener.Port())
}

func TestListener_Address(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   config.ListenerConfig
		expected string
	}{
		{
			name:     "with bind address",
			config:   config.ListenerConfig{Name: "http", Bind: "127.0.0.1", Port: 8080},
			expected: "127.0.0.1:8080",
		},
		{
			name:     "without bind address",
			config:   config.ListenerConfig{Name: "http", Port: 8080},
			expected: ":8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			listener, err := NewListener(tt.config, okHandler())
			require.NoError(t, err)

			assert.Equal(t, tt.expected, listener.Address())
		})
	}
}

func TestListener_StartStop(t *testing.T) {
	t.Parallel()

	cfg := config.ListenerConfig{
		Name: "test-listener",
		Port: 0, // Random port
	}

	listener, err := NewListener(cfg, okHandler())
	require.NoError(t, err)

	ctx := context.Background()

	err = listener.Start(ctx)
	require.NoError(t, err)
	assert.True(t, listener.IsRunning())

	// Give it time to start
	time.Sleep(10 * time.Millisecond)

	err = listener.Stop(ctx)
	require.NoError(t, err)

	// Give it time to stop
	time.Sleep(10 * time.Millisecond)
	assert.False(t, listener.IsRunning())
}

func TestListener_Start_AlreadyRunning(t *testing.T) {
	t.Parallel()

	cfg := config.ListenerConfig{
		Name: "test-listener",
		Port: 0,
	}

	listener, err := NewListener(cfg, okHandler())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, listener.Start(ctx))
	defer func() { _ = listener.Stop(ctx) }()

	err = listener.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestListener_Start_ListenFailure(t *testing.T) {
	t.Parallel()

	cfg := config.ListenerConfig{
		Name: "test-listener",
		Bind: "256.256.256.256",
		Port: 8080,
	}

	listener, err := NewListener(cfg, okHandler())
	require.NoError(t, err)

	err = listener.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
	assert.False(t, listener.IsRunning())
}

func TestListener_Stop_NotRunning(t *testing.T) {
	t.Parallel()

	cfg := config.ListenerConfig{
		Name: "test-listener",
		Port: 0,
	}

	listener, err := NewListener(cfg, okHandler())
	require.NoError(t, err)

	assert.NoError(t, listener.Stop(context.Background()))
}

func TestListener_AppliesConfiguredTimeouts(t *testing.T) {
	t.Parallel()

	cfg := config.ListenerConfig{
		Name:         "test-listener",
		Port:         0,
		ReadTimeout:  config.Duration(15 * time.Second),
		WriteTimeout: config.Duration(20 * time.Second),
		IdleTimeout:  config.Duration(90 * time.Second),
	}

	listener, err := NewListener(cfg, okHandler())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, listener.Start(ctx))
	defer func() { _ = listener.Stop(ctx) }()

	require.NotNil(t, listener.server)
	assert.Equal(t, 15*time.Second, listener.server.ReadTimeout)
	assert.Equal(t, 10*time.Second, listener.server.ReadHeaderTimeout)
	assert.Equal(t, 20*time.Second, listener.server.WriteTimeout)
	assert.Equal(t, 90*time.Second, listener.server.IdleTimeout)
	assert.Equal(t, 1<<20, listener.server.MaxHeaderBytes)
}
