package rewrite

import (
	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/util"
)

// RuleSet is the ordered rewrite rule table. Immutable after
// construction; matching never mutates it, so one table serves any
// number of concurrent requests. Reloads build a new table and swap it
// in at the gateway layer.
type RuleSet struct {
	rules  []*Rule
	custom int
}

// RuleInfo is a read-only description of one rule for the admin API
// and logs.
type RuleInfo struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Pattern string   `json:"pattern"`
	Params  []string `json:"params,omitempty"`
	When    string   `json:"when,omitempty"`
	Builtin bool     `json:"builtin"`
}

// Option is a functional option for rule set compilation.
type Option func(*compileOptions)

type compileOptions struct {
	logger   observability.Logger
	builtins bool
}

// WithLogger sets the logger used during compilation.
func WithLogger(logger observability.Logger) Option {
	return func(o *compileOptions) {
		o.logger = logger
	}
}

// WithBuiltins controls whether the builtin catalog table is included.
// Included by default.
func WithBuiltins(enabled bool) Option {
	return func(o *compileOptions) {
		o.builtins = enabled
	}
}

// Compile validates and compiles custom rules and prepends them to the
// builtin table. Custom rules keep their configuration order; builtins
// keep their fixed relative order. Rule names must be unique across
// the whole table.
func Compile(rules []config.RewriteRule, opts ...Option) (*RuleSet, error) {
	o := compileOptions{
		logger:   observability.NopLogger(),
		builtins: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	compiled := make([]*Rule, 0, len(rules)+len(builtinTable))
	seen := make(map[string]bool, len(rules))

	for _, cfg := range rules {
		if seen[cfg.Name] {
			return nil, util.NewRuleError(cfg.Name, "duplicate rule name")
		}
		if o.builtins && builtinNames[cfg.Name] {
			return nil, util.NewRuleError(cfg.Name, "rule name is reserved by the builtin table")
		}

		rule, err := compileRule(cfg)
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, rule)
		seen[cfg.Name] = true

		o.logger.Debug("compiled rewrite rule",
			observability.String("rule", rule.name),
			observability.String("kind", rule.matcher.Type()),
			observability.String("pattern", rule.matcher.Pattern()),
			observability.Bool("conditioned", rule.cond != nil),
		)
	}

	if o.builtins {
		compiled = append(compiled, builtinTable...)
	}

	o.logger.Info("rewrite rule table ready",
		observability.Int("custom", len(rules)),
		observability.Int("total", len(compiled)),
		observability.Bool("builtins", o.builtins),
	)

	return &RuleSet{rules: compiled, custom: len(rules)}, nil
}

// Resolve resolves a path against the table. Equivalent to
// ResolveInput with only the path set, so rules with a condition never
// match.
func (rs *RuleSet) Resolve(path string) Resolution {
	return rs.ResolveInput(Input{Path: path})
}

// ResolveInput evaluates the rules in priority order. The first full
// match wins; inputs no rule claims resolve to the passthrough
// catch-all with no parameters.
func (rs *RuleSet) ResolveInput(in Input) Resolution {
	for _, rule := range rs.rules {
		if res, ok := rule.resolve(in); ok {
			return res
		}
	}
	return Resolution{Rule: RulePassthrough}
}

// Rules returns the table description in evaluation order, ending with
// the passthrough catch-all.
func (rs *RuleSet) Rules() []RuleInfo {
	infos := make([]RuleInfo, 0, len(rs.rules)+1)
	for _, rule := range rs.rules {
		infos = append(infos, rule.Info())
	}
	infos = append(infos, RuleInfo{
		Name:    RulePassthrough,
		Kind:    "builtin",
		Pattern: "*",
		Builtin: true,
	})
	return infos
}

// Len returns the number of rules in the table, excluding the
// passthrough catch-all.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// CustomLen returns the number of custom rules in the table.
func (rs *RuleSet) CustomLen() int {
	return rs.custom
}
