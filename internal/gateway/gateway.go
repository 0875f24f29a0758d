package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/rewrite"
)

// State represents the gateway state.
type State int32

const (
	// StateStopped indicates the gateway is stopped.
	StateStopped State = iota
	// StateStarting indicates the gateway is starting.
	StateStarting
	// StateRunning indicates the gateway is running.
	StateRunning
	// StateStopping indicates the gateway is stopping.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// UpstreamSwapper swaps the proxy target during a configuration
// reload. *proxy.UpstreamProxy implements it.
type UpstreamSwapper interface {
	SetUpstream(cfg *config.UpstreamConfig) error
}

// Gateway is the pretty-URL gateway. It owns the HTTP listener and the
// live rule table in front of a single catalog upstream.
type Gateway struct {
	config    *config.Config
	logger    observability.Logger
	metrics   *observability.Metrics
	engine    *gin.Engine
	listener  *Listener
	rewriter  *Rewriter
	upstream  UpstreamSwapper
	state     atomic.Int32
	startTime time.Time
	mu        sync.RWMutex

	// Handlers
	routeHandler http.Handler

	// Shutdown
	shutdownTimeout time.Duration
}

// Option is a functional option for configuring the gateway.
type Option func(*Gateway)

// WithLogger sets the logger for the gateway.
func WithLogger(logger observability.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithShutdownTimeout sets the shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.shutdownTimeout = timeout
	}
}

// WithRouteHandler sets the handler that serves gateway traffic,
// typically the assembled middleware chain ending in the proxy.
func WithRouteHandler(handler http.Handler) Option {
	return func(g *Gateway) {
		g.routeHandler = handler
	}
}

// WithRewriter sets the rewrite handler whose rule table Reload swaps.
func WithRewriter(rw *Rewriter) Option {
	return func(g *Gateway) {
		g.rewriter = rw
	}
}

// WithUpstream sets the proxy whose target Reload swaps.
func WithUpstream(up UpstreamSwapper) Option {
	return func(g *Gateway) {
		g.upstream = up
	}
}

// WithMetrics sets the metrics used to record reload outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// New creates a new Gateway instance.
func New(cfg *config.Config, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	g := &Gateway{
		config:          cfg,
		logger:          observability.NopLogger(),
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.state.Store(int32(StateStopped))

	return g, nil
}

// Start starts the gateway.
func (g *Gateway) Start(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("gateway is not in stopped state")
	}

	g.logger.Info("starting gateway",
		observability.String("name", g.config.Metadata.Name),
	)

	// Initialize gin engine
	gin.SetMode(gin.ReleaseMode)
	g.engine = gin.New()

	// Setup routes
	g.setupRoutes()

	listener, err := NewListener(
		g.config.Spec.Listener,
		g.engine,
		WithListenerLogger(g.logger),
	)
	if err != nil {
		g.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to create listener: %w", err)
	}
	g.listener = listener

	if err := g.listener.Start(ctx); err != nil {
		g.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to start listener %s: %w", g.listener.Name(), err)
	}

	g.startTime = time.Now()
	g.state.Store(int32(StateRunning))

	g.logger.Info("gateway started",
		observability.String("name", g.config.Metadata.Name),
		observability.String("address", g.listener.Address()),
		observability.String("upstream", g.config.Spec.Upstream.URL()),
		observability.Int("rewrite_rules", g.ActiveRules()),
	)

	return nil
}

// Stop stops the gateway gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return fmt.Errorf("gateway is not running")
	}

	g.logger.Info("stopping gateway",
		observability.String("name", g.config.Metadata.Name),
	)

	// Create timeout context if not already set
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.shutdownTimeout)
		defer cancel()
	}

	if err := g.listener.Stop(ctx); err != nil {
		g.logger.Error("failed to stop listener",
			observability.String("name", g.listener.Name()),
			observability.Error(err),
		)
	}

	g.state.Store(int32(StateStopped))

	g.logger.Info("gateway stopped",
		observability.String("name", g.config.Metadata.Name),
	)

	return nil
}

// Reload applies a new configuration without restarting the listener.
// The rule table and upstream target swap atomically; requests already
// past the rewrite handler finish against the state they started with.
func (g *Gateway) Reload(cfg *config.Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("reloading gateway configuration",
		observability.String("name", cfg.Metadata.Name),
	)

	if err := config.ValidateConfig(cfg); err != nil {
		g.recordReload(false)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rules, err := rewrite.Compile(cfg.Spec.Rewrite.Rules,
		rewrite.WithBuiltins(cfg.Spec.Rewrite.BuiltinRulesEnabled()),
		rewrite.WithLogger(g.logger),
	)
	if err != nil {
		g.recordReload(false)
		return fmt.Errorf("failed to compile rewrite rules: %w", err)
	}

	// Swap the upstream before the rule table so a failed swap leaves
	// both untouched. Rule application cannot fail.
	if g.upstream != nil && !cfg.Spec.Upstream.IsEcho() {
		if err := g.upstream.SetUpstream(&cfg.Spec.Upstream); err != nil {
			g.recordReload(false)
			return fmt.Errorf("failed to swap upstream: %w", err)
		}
	}

	if g.rewriter != nil {
		g.rewriter.Apply(cfg, rules)
	}

	g.config = cfg
	g.recordReload(true)

	g.logger.Info("gateway configuration reloaded",
		observability.String("name", cfg.Metadata.Name),
		observability.Int("rewrite_rules", rules.Len()),
		observability.Int("custom_rules", rules.CustomLen()),
	)

	return nil
}

// recordReload counts reload outcomes when metrics are attached.
func (g *Gateway) recordReload(success bool) {
	if g.metrics != nil {
		g.metrics.RecordConfigReload(success)
	}
}

// State returns the current gateway state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// IsRunning returns true if the gateway is running.
func (g *Gateway) IsRunning() bool {
	return g.State() == StateRunning
}

// Uptime returns the gateway uptime.
func (g *Gateway) Uptime() time.Duration {
	if g.startTime.IsZero() {
		return 0
	}
	return time.Since(g.startTime)
}

// Config returns the current configuration.
func (g *Gateway) Config() *config.Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config
}

// Engine returns the gin engine.
func (g *Gateway) Engine() *gin.Engine {
	return g.engine
}

// ActiveRules returns the number of matchable rules in the live table,
// excluding the passthrough fallback. Zero when no rewriter is
// attached, which the readiness rules check reports as degraded.
func (g *Gateway) ActiveRules() int {
	if g.rewriter == nil {
		return 0
	}
	return g.rewriter.ActiveRules()
}

// Listener returns the HTTP listener.
func (g *Gateway) Listener() *Listener {
	return g.listener
}

// setupRoutes sets up the gin routes.
func (g *Gateway) setupRoutes() {
	// Add recovery middleware
	g.engine.Use(gin.Recovery())

	// All catalog traffic flows through the rewrite pipeline
	if g.routeHandler != nil {
		g.engine.NoRoute(gin.WrapH(g.routeHandler))
	}
}
