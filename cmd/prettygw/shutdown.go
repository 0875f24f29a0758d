package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
)

// shutdownGracePeriod bounds the whole shutdown sequence, not any
// single component.
const shutdownGracePeriod = 30 * time.Second

// runGateway runs the gateway and handles shutdown.
func runGateway(app *application, configPath string, logger observability.Logger) {
	ctx := context.Background()

	if err := app.gateway.Start(ctx); err != nil {
		fatalWithSync(logger, "failed to start gateway", observability.Error(err))
		return // unreachable in production; allows test to continue
	}

	startMetricsServerIfEnabled(app, logger)
	startAdminServerIfEnabled(ctx, app, logger)
	watcher := startConfigWatcher(ctx, app, configPath, logger)

	waitForShutdown(app, watcher, logger)
}

// startAdminServerIfEnabled starts the admin API server if one was
// configured.
func startAdminServerIfEnabled(ctx context.Context, app *application, logger observability.Logger) {
	if app.adminServer == nil {
		return
	}

	if err := app.adminServer.Start(ctx); err != nil {
		logger.Error("failed to start admin server", observability.Error(err))
		app.adminServer = nil
	}
}

// waitForShutdown waits for a shutdown signal and performs graceful
// shutdown.
func waitForShutdown(app *application, watcher *config.Watcher, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if app.metricsServer != nil {
		logger.Info("stopping metrics server")
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	if app.adminServer != nil {
		logger.Info("stopping admin server")
		if err := app.adminServer.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop admin server gracefully", observability.Error(err))
		}
	}

	if err := app.gateway.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop gateway gracefully", observability.Error(err))
	}

	// Close the cache after the gateway stops so in-flight requests can
	// still read from it during drain.
	if app.cacheBackend != nil {
		if err := app.cacheBackend.Close(); err != nil {
			logger.Error("failed to close cache", observability.Error(err))
		}
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	// Stop the rate limiter cleanup goroutine
	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}

	logger.Info("gateway stopped")
}
