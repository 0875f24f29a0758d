package diag

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/rewrite"
)

// adminReadHeaderTimeout bounds header reads on the admin port.
const adminReadHeaderTimeout = 10 * time.Second

// RuleSource exposes the live rule table. *gateway.Rewriter implements
// it.
type RuleSource interface {
	RuleSet() *rewrite.RuleSet
}

// ConfigSource exposes the active configuration. *gateway.Gateway
// implements it.
type ConfigSource interface {
	Config() *config.Config
}

// Admin serves the read-only diagnostic API on its own port.
type Admin struct {
	config config.AdminConfig
	rules  RuleSource
	source ConfigSource
	logger observability.Logger
	server *http.Server
	engine *gin.Engine
}

// AdminOption is a functional option for configuring the admin API.
type AdminOption func(*Admin)

// WithAdminLogger sets the logger for the admin API.
func WithAdminLogger(logger observability.Logger) AdminOption {
	return func(a *Admin) {
		a.logger = logger
	}
}

// NewAdmin creates the admin API server.
func NewAdmin(
	cfg config.AdminConfig,
	rules RuleSource,
	source ConfigSource,
	opts ...AdminOption,
) *Admin {
	a := &Admin{
		config: cfg,
		rules:  rules,
		source: source,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	gin.SetMode(gin.ReleaseMode)
	a.engine = gin.New()
	a.engine.Use(gin.Recovery())
	a.registerRoutes()

	return a
}

// registerRoutes mounts the read-only API.
func (a *Admin) registerRoutes() {
	v1 := a.engine.Group("/api/v1")
	v1.GET("/rules", a.rulesHandler())
	v1.GET("/resolve", a.resolveHandler())
	v1.GET("/config", a.configHandler())
}

// Engine returns the gin engine, mainly for tests.
func (a *Admin) Engine() *gin.Engine {
	return a.engine
}

// Start starts the admin server.
func (a *Admin) Start(ctx context.Context) error {
	addr := a.config.Address()

	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.engine,
		ReadHeaderTimeout: adminReadHeaderTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	a.logger.Info("admin API started",
		observability.String("address", addr),
	)

	go func() {
		if err := a.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.logger.Error("admin API error", observability.Error(err))
		}
	}()

	return nil
}

// Stop stops the admin server gracefully.
func (a *Admin) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown admin API: %w", err)
	}

	a.logger.Info("admin API stopped")

	return nil
}

// rulesResponse lists the active table in evaluation order.
type rulesResponse struct {
	Rules []rewrite.RuleInfo `json:"rules"`
}

// rulesHandler returns the active rule table, custom rules first, then
// builtins, then the passthrough catch-all.
func (a *Admin) rulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rs := a.rules.RuleSet()
		c.JSON(http.StatusOK, rulesResponse{Rules: rs.Rules()})
	}
}

// resolveResponse is a dry-run resolution result.
type resolveResponse struct {
	Path    string          `json:"path"`
	Matched bool            `json:"matched"`
	Rule    string          `json:"rule"`
	Params  []rewrite.Param `json:"params,omitempty"`
	Query   string          `json:"query,omitempty"`
}

// resolveHandler dry-runs a path against the live table without
// touching the upstream. Optional host and method parameters feed
// conditioned rules.
func (a *Admin) resolveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Query("path")
		if path == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "path query parameter is required",
			})
			return
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		res := a.rules.RuleSet().ResolveInput(rewrite.Input{
			Path:   path,
			Host:   c.Query("host"),
			Method: c.Query("method"),
		})

		c.JSON(http.StatusOK, resolveResponse{
			Path:    path,
			Matched: res.Matched,
			Rule:    res.Rule,
			Params:  res.Params,
			Query:   res.Encode(),
		})
	}
}

// configSummary is the sanitized view served by /api/v1/config.
// Credentials never appear here.
type configSummary struct {
	Name             string `json:"name"`
	Listener         string `json:"listener"`
	Upstream         string `json:"upstream"`
	FrontController  string `json:"frontController"`
	QueryMode        string `json:"queryMode"`
	BuiltinRules     bool   `json:"builtinRules"`
	CustomRules      int    `json:"customRules"`
	BypassPrefixes   int    `json:"bypassPrefixes"`
	BypassExtensions int    `json:"bypassExtensions"`
	Cache            string `json:"cache"`
	RateLimit        bool   `json:"rateLimit"`
	CircuitBreaker   bool   `json:"circuitBreaker"`
}

// configHandler returns a summary of the active configuration.
func (a *Admin) configHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := a.source.Config()

		summary := configSummary{
			Name:            cfg.Metadata.Name,
			Listener:        cfg.Spec.Listener.Address(),
			Upstream:        cfg.Spec.Upstream.URL(),
			FrontController: cfg.Spec.Upstream.FrontController,
			QueryMode:       cfg.Spec.Rewrite.QueryMode,
			BuiltinRules:    cfg.Spec.Rewrite.BuiltinRulesEnabled(),
			CustomRules:     len(cfg.Spec.Rewrite.Rules),
			Cache:           "off",
		}

		if cfg.Spec.Upstream.IsEcho() {
			summary.Upstream = "echo"
		}
		if b := cfg.Spec.Rewrite.Bypass; b != nil {
			summary.BypassPrefixes = len(b.Prefixes)
			summary.BypassExtensions = len(b.Extensions)
		}
		if cfg.Spec.Cache != nil && cfg.Spec.Cache.Enabled {
			summary.Cache = cfg.Spec.Cache.Type
		}
		if cfg.Spec.RateLimit != nil {
			summary.RateLimit = cfg.Spec.RateLimit.Enabled
		}
		if cfg.Spec.CircuitBreaker != nil {
			summary.CircuitBreaker = cfg.Spec.CircuitBreaker.Enabled
		}

		c.JSON(http.StatusOK, summary)
	}
}
