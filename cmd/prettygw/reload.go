package main

import (
	"context"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/rewrite"
)

// startConfigWatcher starts the configuration file watcher. Watcher
// failures are logged but never fatal: the gateway keeps serving with
// the configuration it already has.
func startConfigWatcher(
	ctx context.Context,
	app *application,
	configPath string,
	logger observability.Logger,
) *config.Watcher {
	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		logger.Info("configuration changed, reloading")
		if reloadErr := app.gateway.Reload(newCfg); reloadErr != nil {
			logger.Error("failed to reload configuration", observability.Error(reloadErr))
		}
	},
		config.WithLogger(logger),
		config.WithValidateFunc(validateForReload),
	)
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
		return watcher
	}

	return watcher
}

// validateForReload extends static validation with a dry compile of the
// rule table, so a file with a broken pattern is rejected before the
// reload callback ever fires.
func validateForReload(cfg *config.Config) error {
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	_, err := rewrite.Compile(cfg.Spec.Rewrite.Rules,
		rewrite.WithBuiltins(cfg.Spec.Rewrite.BuiltinRulesEnabled()),
	)
	return err
}
