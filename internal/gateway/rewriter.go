package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/rewrite"
	"github.com/openshelf/prettygw/internal/util"
)

// ruleBypass is the rule label recorded for requests that skip the
// rule table entirely.
const ruleBypass = "bypass"

// rewriteState is the unit of hot reload: the compiled rule table plus
// the settings that shape a rewritten request. Swapped as a whole so a
// request never sees rules from one configuration and bypass lists
// from another.
type rewriteState struct {
	rules            *rewrite.RuleSet
	bypassPrefixes   []string
	bypassExtensions []string
	frontController  string
	replaceQuery     bool
}

// newRewriteState derives the swap unit from a configuration.
func newRewriteState(cfg *config.Config, rules *rewrite.RuleSet) *rewriteState {
	st := &rewriteState{
		rules:           rules,
		frontController: cfg.Spec.Upstream.FrontController,
		replaceQuery:    cfg.Spec.Rewrite.QueryMode == config.QueryModeReplace,
	}
	if st.frontController == "" {
		st.frontController = config.DefaultFrontController
	}
	if b := cfg.Spec.Rewrite.Bypass; !b.IsEmpty() {
		st.bypassPrefixes = b.Prefixes
		st.bypassExtensions = b.Extensions
	}
	return st
}

// bypassed reports whether the path skips the rule table. Requests
// addressed directly to the front controller are never rewritten.
func (st *rewriteState) bypassed(path string) bool {
	if path == st.frontController {
		return true
	}
	for _, prefix := range st.bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, ext := range st.bypassExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Rewriter translates pretty catalog paths into front controller query
// strings. It runs near the top of the middleware chain so that
// logging, metrics, caching, and the proxy all see the rewritten URL.
type Rewriter struct {
	state   atomic.Pointer[rewriteState]
	logger  observability.Logger
	metrics *observability.Metrics
}

// RewriterOption is a functional option for configuring the rewriter.
type RewriterOption func(*Rewriter)

// WithRewriterLogger sets the logger for the rewriter.
func WithRewriterLogger(logger observability.Logger) RewriterOption {
	return func(rw *Rewriter) {
		rw.logger = logger
	}
}

// WithRewriterMetrics sets the metrics used to record resolutions.
func WithRewriterMetrics(m *observability.Metrics) RewriterOption {
	return func(rw *Rewriter) {
		rw.metrics = m
	}
}

// NewRewriter creates a rewriter serving the given rule table.
func NewRewriter(
	cfg *config.Config,
	rules *rewrite.RuleSet,
	opts ...RewriterOption,
) *Rewriter {
	rw := &Rewriter{
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(rw)
	}

	rw.state.Store(newRewriteState(cfg, rules))

	return rw
}

// Apply swaps in a new configuration and rule table. In-flight
// requests keep the state they loaded.
func (rw *Rewriter) Apply(cfg *config.Config, rules *rewrite.RuleSet) {
	rw.state.Store(newRewriteState(cfg, rules))
}

// RuleSet returns the live rule table.
func (rw *Rewriter) RuleSet() *rewrite.RuleSet {
	return rw.state.Load().rules
}

// ActiveRules returns the number of matchable rules in the live table,
// excluding the passthrough fallback.
func (rw *Rewriter) ActiveRules() int {
	return rw.state.Load().rules.Len()
}

// Middleware returns the rewrite middleware. Matched requests continue
// down the chain with their URL rewritten to the front controller and
// the resolution stored in the request context. Bypassed and unmatched
// requests continue untouched.
func (rw *Rewriter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			st := rw.state.Load()
			path := r.URL.Path

			ctx := util.ContextWithOriginalPath(r.Context(), path)

			if st.bypassed(path) {
				ctx = util.ContextWithRule(ctx, ruleBypass)
				rw.record(ctx, ruleBypass, observability.OutcomeBypass, start)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			res := st.rules.ResolveInput(rewrite.Input{
				Path:   path,
				Host:   r.Host,
				Method: r.Method,
				Header: r.Header,
			})

			ctx = rewrite.ContextWithResolution(ctx, res)
			ctx = util.ContextWithRule(ctx, res.Rule)

			if !res.Matched {
				rw.record(ctx, res.Rule, observability.OutcomePassthrough, start)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			r2 := r.WithContext(ctx)
			r2.URL = cloneURL(r.URL)
			r2.URL.Path = st.frontController
			r2.URL.RawPath = ""
			r2.URL.RawQuery = rewrittenQuery(r.URL.RawQuery, res, st.replaceQuery)
			r2.Header.Set(rewrite.HeaderOriginalPath, path)

			rw.logger.Debug("path rewritten",
				observability.String("rule", res.Rule),
				observability.String("from", path),
				observability.String("to", r2.URL.Path+"?"+r2.URL.RawQuery),
			)
			rw.record(ctx, res.Rule, observability.OutcomeRewritten, start)

			next.ServeHTTP(w, r2)
		})
	}
}

// record counts the resolution and attaches it to the active span.
func (rw *Rewriter) record(
	ctx context.Context,
	rule, outcome string,
	start time.Time,
) {
	if rw.metrics != nil {
		rw.metrics.RecordResolution(rule, outcome, time.Since(start))
	}

	span := observability.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("rewrite.resolved", trace.WithAttributes(
			attribute.String("rewrite.rule", rule),
			attribute.String("rewrite.outcome", outcome),
		))
	}
}

// cloneURL copies a URL so the rewrite never mutates the caller's
// request.
func cloneURL(u *url.URL) *url.URL {
	clone := *u
	return &clone
}

// rewrittenQuery builds the query string for a matched rule. Resolved
// parameters come first in template order. In merge mode the incoming
// query keeps its remaining parameters, with any key also resolved by
// the rule dropped so the rule always wins. In replace mode the
// incoming query is discarded.
func rewrittenQuery(incoming string, res rewrite.Resolution, replace bool) string {
	resolved := res.Encode()
	if replace || incoming == "" {
		return resolved
	}

	extra, err := url.ParseQuery(incoming)
	if err != nil {
		return resolved
	}
	for _, p := range res.Params {
		extra.Del(p.Name)
	}
	if len(extra) == 0 {
		return resolved
	}
	if resolved == "" {
		return extra.Encode()
	}

	return resolved + "&" + extra.Encode()
}
