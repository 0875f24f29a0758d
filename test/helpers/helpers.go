// Package helpers provides common test utilities for the prettygw tests.
package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/diag"
	"github.com/openshelf/prettygw/internal/gateway"
	"github.com/openshelf/prettygw/internal/middleware"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/proxy"
	"github.com/openshelf/prettygw/internal/rewrite"
)

// GatewayInstance represents a running gateway instance for testing.
type GatewayInstance struct {
	Gateway  *gateway.Gateway
	Rewriter *gateway.Rewriter
	Config   *config.Config
	BaseURL  string
}

// StartGateway starts a gateway instance from a configuration file.
func StartGateway(ctx context.Context, configPath string) (*GatewayInstance, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return StartGatewayWithConfig(ctx, cfg)
}

// StartGatewayWithConfig starts a gateway instance with the given
// configuration struct. The handler chain mirrors production: recovery
// and request IDs outside the rewrite, the echo responder or upstream
// proxy inside it.
func StartGatewayWithConfig(ctx context.Context, cfg *config.Config) (*GatewayInstance, error) {
	logger := observability.NopLogger()

	rules, err := rewrite.Compile(cfg.Spec.Rewrite.Rules,
		rewrite.WithBuiltins(cfg.Spec.Rewrite.BuiltinRulesEnabled()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rewrite rules: %w", err)
	}
	rewriter := gateway.NewRewriter(cfg, rules)

	var inner http.Handler
	var upstream *proxy.UpstreamProxy
	if cfg.Spec.Upstream.IsEcho() {
		inner = diag.NewEcho()
	} else {
		upstream, err = proxy.New(&cfg.Spec.Upstream)
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream proxy: %w", err)
		}
		inner = upstream
	}

	h := rewriter.Middleware()(inner)
	h = middleware.RequestID()(h)
	h = middleware.Recovery(logger)(h)

	gwOpts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithRouteHandler(h),
		gateway.WithRewriter(rewriter),
	}
	if upstream != nil {
		gwOpts = append(gwOpts, gateway.WithUpstream(upstream))
	}

	gw, err := gateway.New(cfg, gwOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	if err := gw.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start gateway: %w", err)
	}

	return &GatewayInstance{
		Gateway:  gw,
		Rewriter: rewriter,
		Config:   cfg,
		BaseURL:  fmt.Sprintf("http://127.0.0.1:%d", cfg.Spec.Listener.Port),
	}, nil
}

// Stop stops the gateway instance.
func (g *GatewayInstance) Stop(ctx context.Context) error {
	return g.Gateway.Stop(ctx)
}

// HTTPGet performs a GET request against the instance and returns the
// response with its body already read.
func (g *GatewayInstance) HTTPGet(path string) (*http.Response, []byte, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(g.BaseURL + path)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	return resp, body, nil
}

// EchoGet performs a GET request and decodes the echo responder's JSON
// body.
func (g *GatewayInstance) EchoGet(path string) (*diag.EchoResponse, error) {
	resp, body, err := g.HTTPGet(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var echo diag.EchoResponse
	if err := json.Unmarshal(body, &echo); err != nil {
		return nil, fmt.Errorf("failed to decode echo response: %w", err)
	}

	return &echo, nil
}
