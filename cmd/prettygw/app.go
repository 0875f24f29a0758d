package main

import (
	"net/http"

	"github.com/openshelf/prettygw/internal/cache"
	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/diag"
	"github.com/openshelf/prettygw/internal/gateway"
	"github.com/openshelf/prettygw/internal/health"
	"github.com/openshelf/prettygw/internal/middleware"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/proxy"
	"github.com/openshelf/prettygw/internal/retry"
	"github.com/openshelf/prettygw/internal/rewrite"
)

// application holds all application components.
type application struct {
	gateway       *gateway.Gateway
	rewriter      *gateway.Rewriter
	healthChecker *health.Checker
	metrics       *observability.Metrics
	metricsServer *http.Server
	adminServer   *diag.Admin
	tracer        *observability.Tracer
	config        *config.Config
	cacheBackend  cache.Cache
	rateLimiter   *middleware.RateLimiter
}

// initApplication initializes all application components.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	metrics := observability.NewMetrics("prettygw")
	metrics.InitVecMetrics()
	metrics.SetBuildInfo(version, gitCommit, buildTime)
	tracer := initTracer(cfg, logger)
	healthChecker := health.NewChecker(version)

	registerSubsystemMetrics(metrics, logger)
	initClientIPExtractor(cfg, logger)

	rules, err := rewrite.Compile(cfg.Spec.Rewrite.Rules,
		rewrite.WithBuiltins(cfg.Spec.Rewrite.BuiltinRulesEnabled()),
		rewrite.WithLogger(logger),
	)
	if err != nil {
		fatalWithSync(logger, "failed to compile rewrite rules", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	rewriter := gateway.NewRewriter(cfg, rules,
		gateway.WithRewriterLogger(logger),
		gateway.WithRewriterMetrics(metrics),
	)

	cacheBackend := initCache(cfg, logger)
	upstreamHandler, upstreamProxy := initUpstreamHandler(cfg, logger)

	chain := buildMiddlewareChain(upstreamHandler, rewriter, cfg, logger, metrics, tracer, cacheBackend)

	gwOpts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithRouteHandler(chain.handler),
		gateway.WithRewriter(rewriter),
		gateway.WithMetrics(metrics),
		gateway.WithShutdownTimeout(cfg.Spec.Listener.ShutdownTimeout.Duration()),
	}
	if upstreamProxy != nil {
		gwOpts = append(gwOpts, gateway.WithUpstream(upstreamProxy))
	}

	gw, err := gateway.New(cfg, gwOpts...)
	if err != nil {
		fatalWithSync(logger, "failed to create gateway", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	registerHealthChecks(healthChecker, gw, cfg, cacheBackend)

	var adminServer *diag.Admin
	if cfg.Spec.Admin != nil && cfg.Spec.Admin.Enabled {
		adminServer = diag.NewAdmin(*cfg.Spec.Admin, rewriter, gw,
			diag.WithAdminLogger(logger),
		)
	}

	return &application{
		gateway:       gw,
		rewriter:      rewriter,
		healthChecker: healthChecker,
		metrics:       metrics,
		adminServer:   adminServer,
		tracer:        tracer,
		config:        cfg,
		cacheBackend:  cacheBackend,
		rateLimiter:   chain.rateLimiter,
	}
}

// registerSubsystemMetrics initializes and registers the subsystem
// metric singletons with the gateway's custom Prometheus registry.
// The singletons use promauto, which registers with the default global
// registry, but /metrics is served from the gateway's own registry.
// Without this explicit registration the subsystem metrics would be
// invisible there even though they are recorded at runtime.
func registerSubsystemMetrics(metrics *observability.Metrics, logger observability.Logger) {
	registry := metrics.Registry()

	cacheMetrics := cache.GetCacheMetrics()
	cacheMetrics.MustRegister(registry)
	cacheMetrics.Init()

	// Middleware metrics singleton (rate limiter, circuit breaker,
	// recovered panics).
	mwMetrics := middleware.GetMiddlewareMetrics()
	mwMetrics.MustRegister(registry)
	mwMetrics.Init()

	hlMetrics := health.GetHealthMetrics()
	hlMetrics.MustRegister(registry)
	hlMetrics.Init()

	// Retry metrics carry per-operation labels that are unknown until
	// the first attempt, so there is nothing to preseed.
	retryMetrics := retry.GetRetryMetrics()
	retryMetrics.MustRegister(registry)

	proxy.InitProxyMetrics(registry)
	proxy.InitProxyVecMetrics()

	logger.Info("subsystem metrics registered with gateway registry",
		observability.Strings("subsystems", []string{"cache", "middleware", "health", "retry", "proxy"}),
	)
}

// initClientIPExtractor creates and sets the global ClientIPExtractor
// from the listener's trusted proxies list.
func initClientIPExtractor(cfg *config.Config, logger observability.Logger) {
	proxies := cfg.Spec.Listener.TrustedProxies
	extractor := middleware.NewClientIPExtractor(proxies)
	middleware.SetGlobalIPExtractor(extractor)

	if len(proxies) > 0 {
		logger.Info("client IP extraction configured with trusted proxies",
			observability.Int("trusted_proxy_count", len(proxies)),
		)
	} else {
		logger.Info("client IP extraction using RemoteAddr only (no trusted proxies)")
	}
}

// initCache creates the response cache backend when one is configured.
func initCache(cfg *config.Config, logger observability.Logger) cache.Cache {
	if cfg.Spec.Cache == nil || !cfg.Spec.Cache.Enabled {
		return nil
	}

	c, err := cache.New(cfg.Spec.Cache, logger)
	if err != nil {
		fatalWithSync(logger, "failed to initialize cache", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	logger.Info("response cache enabled",
		observability.String("type", cfg.Spec.Cache.Type),
	)
	return c
}

// initUpstreamHandler creates the innermost handler: a reverse proxy
// toward the catalog application, or the echo responder when no
// upstream is configured.
func initUpstreamHandler(cfg *config.Config, logger observability.Logger) (http.Handler, *proxy.UpstreamProxy) {
	if cfg.Spec.Upstream.IsEcho() {
		logger.Info("running in echo mode, rewritten requests are reflected back")
		return diag.NewEcho(diag.WithEchoLogger(logger)), nil
	}

	p, err := proxy.New(&cfg.Spec.Upstream, proxy.WithProxyLogger(logger))
	if err != nil {
		fatalWithSync(logger, "failed to create upstream proxy", observability.Error(err))
		return nil, nil // unreachable in production; allows test to continue
	}

	return p, p
}

// registerHealthChecks registers the readiness checks that match the
// configured subsystems. The rules check is always on; upstream and
// cache checks only exist when those subsystems do.
func registerHealthChecks(checker *health.Checker, gw *gateway.Gateway, cfg *config.Config, cacheBackend cache.Cache) {
	checker.RegisterCheck("rules", health.RulesCheck(gw.ActiveRules))

	if !cfg.Spec.Upstream.IsEcho() {
		checker.RegisterCheck("upstream", health.UpstreamCheck(
			cfg.Spec.Upstream.Address(),
			cfg.Spec.Upstream.DialTimeout.Duration(),
		))
	}

	if cacheBackend != nil {
		checker.RegisterCheck("cache", health.CacheCheck(cacheBackend))
	}
}
