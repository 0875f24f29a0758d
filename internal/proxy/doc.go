// Package proxy forwards rewritten requests to the catalog upstream.
//
// The gateway fronts exactly one upstream, the legacy OPAC front
// controller, so the proxy is a single-target reverse proxy rather
// than a routing one. Requests arrive with their URL already rewritten
// to the front controller form; the proxy only moves them across.
//
// # Features
//
//   - httputil.ReverseProxy with a configurable transport
//   - Hop-by-hop header removal per RFC 7230
//   - X-Forwarded-For/Proto/Host chain, optional Host passthrough
//   - Transparent replay of idempotent requests on transport errors
//   - Response timeout from the upstream configuration
//   - Hot swap of the upstream target on config reload
//
// # Usage
//
// Create and configure the proxy:
//
//	p, err := proxy.New(&cfg.Spec.Upstream,
//	    proxy.WithProxyLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.Handle("/", p)
package proxy
