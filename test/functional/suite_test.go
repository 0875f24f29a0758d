//go:build functional
// +build functional

// Package functional provides functional tests for the prettygw
// gateway. These tests start real listeners and drive real HTTP
// traffic through the full rewrite path.
package functional

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openshelf/prettygw/internal/config"
)

// GetFreePort returns a free TCP port on the loopback interface.
func GetFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

// WaitForServer waits for a server to accept connections.
func WaitForServer(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server at %s did not become ready within %v", addr, timeout)
}

// echoConfig returns an echo-mode configuration bound to a free
// loopback port.
func echoConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Spec.Listener.Bind = "127.0.0.1"
	cfg.Spec.Listener.Port = GetFreePort(t)
	return cfg
}
