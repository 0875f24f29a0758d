// Package gateway ties the pretty-URL gateway together: one HTTP
// listener, the rewrite handler that turns catalog paths into front
// controller query strings, and lifecycle management.
//
// # Features
//
//   - Single HTTP listener with configuration-driven timeouts
//   - Pretty-URL rewriting ahead of the proxy chain
//   - Configuration hot reload without restart or dropped requests
//   - Graceful shutdown with configurable timeout
//   - Gateway state management (stopped, starting, running, stopping)
//
// # Usage
//
// Create and start a gateway:
//
//	gw, err := gateway.New(cfg,
//	    gateway.WithLogger(logger),
//	    gateway.WithRouteHandler(chain),
//	    gateway.WithRewriter(rewriter),
//	    gateway.WithUpstream(upstream),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := gw.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer gw.Stop(ctx)
//
// # Configuration Reload
//
// Reload validates the new configuration, compiles its rule table, and
// swaps the rule set and upstream target atomically. Requests already
// past the rewrite handler finish against the state they started with:
//
//	if err := gw.Reload(newConfig); err != nil {
//	    logger.Error("reload failed", observability.Error(err))
//	}
package gateway
