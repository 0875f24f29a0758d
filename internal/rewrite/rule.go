package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/util"
)

// Builtin rule names. They appear in logs, metrics, and the admin API
// alongside custom rule names.
const (
	RuleShowDetailQuery = "show-detail-query"
	RuleShowDetailPath  = "show-detail-path"
	RulePageActionID    = "page-action-id"
	RulePageAction      = "page-action"
	RulePage            = "page"
	RulePassthrough     = "passthrough"
)

// Rule is one compiled rewrite rule: a full-path pattern, an ordered
// parameter template, and an optional request condition. Immutable
// after compilation, so rules may be shared between rule sets.
type Rule struct {
	name    string
	matcher Matcher
	params  []paramTemplate
	cond    *condition
	when    string
	builtin bool
}

// Name returns the rule name.
func (r *Rule) Name() string {
	return r.name
}

// Builtin reports whether the rule belongs to the builtin catalog table.
func (r *Rule) Builtin() bool {
	return r.builtin
}

// Info returns a read-only description of the rule.
func (r *Rule) Info() RuleInfo {
	info := RuleInfo{
		Name:    r.name,
		Kind:    r.matcher.Type(),
		Pattern: r.matcher.Pattern(),
		When:    r.when,
		Builtin: r.builtin,
	}
	if r.builtin {
		info.Kind = "builtin"
	}
	for _, p := range r.params {
		info.Params = append(info.Params, p.String())
	}
	return info
}

// resolve attempts to match the input against the rule. Builtin rules
// evaluate the path with leading and trailing slashes trimmed; custom
// rules see the path as received. A failed condition counts as no
// match so the next rule gets a chance.
func (r *Rule) resolve(in Input) (Resolution, bool) {
	path := in.Path
	if r.builtin {
		path = strings.Trim(path, "/")
	}

	matched, captures := r.matcher.Match(path)
	if !matched {
		return Resolution{}, false
	}

	if r.cond != nil && !r.cond.eval(in) {
		return Resolution{}, false
	}

	params := make([]Param, len(r.params))
	for i, p := range r.params {
		params[i] = Param{Name: p.name, Value: p.render(captures)}
	}

	return Resolution{Matched: true, Rule: r.name, Params: params}, true
}

// compileRule compiles one custom rule from configuration. It enforces
// the capture invariant: the named captures of the pattern must equal
// the {name} placeholders referenced by the parameter templates.
func compileRule(cfg config.RewriteRule) (*Rule, error) {
	if cfg.Name == "" {
		return nil, util.NewRuleError(cfg.Name, "rule name is required")
	}

	forms := 0
	for _, p := range []string{cfg.Match.Exact, cfg.Match.Template, cfg.Match.Regex} {
		if p != "" {
			forms++
		}
	}
	if forms == 0 {
		return nil, util.NewRuleError(cfg.Name, "one of exact, template, or regex is required")
	}
	if forms > 1 {
		return nil, util.NewRuleError(cfg.Name, "only one of exact, template, or regex can be specified")
	}

	matcher, err := NewMatcher(cfg.Match)
	if err != nil {
		return nil, util.NewRuleErrorWithCause(cfg.Name, "invalid pattern", err)
	}

	if len(cfg.Params) == 0 {
		return nil, util.NewRuleError(cfg.Name, "at least one parameter is required")
	}

	rule := &Rule{
		name:    cfg.Name,
		matcher: matcher,
		params:  make([]paramTemplate, 0, len(cfg.Params)),
		when:    cfg.Match.When,
	}

	for _, p := range cfg.Params {
		if p.Name == "" {
			return nil, util.NewRuleError(cfg.Name, "parameter name is required")
		}
		rule.params = append(rule.params, parseParamTemplate(p))
	}

	if err := checkCaptures(matcher, rule.params); err != nil {
		return nil, util.NewRuleErrorWithCause(cfg.Name, "capture mismatch", err)
	}

	if cfg.Match.When != "" {
		cond, err := compileCondition(cfg.Match.When)
		if err != nil {
			return nil, util.NewRuleErrorWithCause(cfg.Name, "invalid condition", err)
		}
		rule.cond = cond
	}

	return rule, nil
}

// checkCaptures verifies that pattern captures and parameter
// placeholders reference each other exactly.
func checkCaptures(matcher Matcher, params []paramTemplate) error {
	captures := make(map[string]bool)
	for _, name := range matcher.CaptureNames() {
		captures[name] = true
	}

	referenced := make(map[string]bool)
	for _, p := range params {
		for _, part := range p.parts {
			if part.capture == "" {
				continue
			}
			if !captures[part.capture] {
				return fmt.Errorf("parameter %q references unknown capture {%s}", p.name, part.capture)
			}
			referenced[part.capture] = true
		}
	}

	for _, name := range matcher.CaptureNames() {
		if !referenced[name] {
			return fmt.Errorf("pattern capture {%s} is not referenced by any parameter", name)
		}
	}

	return nil
}

// placeholderPattern matches {name} capture references inside
// parameter value templates.
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// paramTemplate is one compiled parameter: a name and a value template
// whose {name} parts are substituted from pattern captures.
type paramTemplate struct {
	name   string
	source string
	parts  []valuePart
}

// valuePart is one piece of a value template: literal text, or a
// reference to a named pattern capture.
type valuePart struct {
	literal string
	capture string
}

// parseParamTemplate splits a parameter value into literal and capture
// parts.
func parseParamTemplate(p config.RewriteParam) paramTemplate {
	tmpl := paramTemplate{name: p.Name, source: p.Value}
	value := p.Value

	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(value, -1) {
		if loc[0] > last {
			tmpl.parts = append(tmpl.parts, valuePart{literal: value[last:loc[0]]})
		}
		tmpl.parts = append(tmpl.parts, valuePart{capture: value[loc[2]:loc[3]]})
		last = loc[1]
	}
	if last < len(value) || len(tmpl.parts) == 0 {
		tmpl.parts = append(tmpl.parts, valuePart{literal: value[last:]})
	}

	return tmpl
}

// render substitutes captures into the value template.
func (t paramTemplate) render(captures map[string]string) string {
	if len(t.parts) == 1 && t.parts[0].capture == "" {
		return t.parts[0].literal
	}

	var b strings.Builder
	for _, part := range t.parts {
		if part.capture != "" {
			b.WriteString(captures[part.capture])
		} else {
			b.WriteString(part.literal)
		}
	}
	return b.String()
}

// String returns the parameter in name=value template form.
func (t paramTemplate) String() string {
	return t.name + "=" + t.source
}

// builtinTable is the fixed catalog rule table, evaluated in order
// after any custom rules. Patterns run against the path with leading
// and trailing slashes trimmed, so the root path falls through to the
// passthrough catch-all.
var builtinTable = []*Rule{
	mustBuiltin(RuleShowDetailQuery, `^sd=(?P<id>[0-9]+)$`,
		config.RewriteParam{Name: "p", Value: "show_detail"},
		config.RewriteParam{Name: "id", Value: "{id}"},
	),
	mustBuiltin(RuleShowDetailPath, `^detail/(?P<id>[0-9]+)$`,
		config.RewriteParam{Name: "p", Value: "show_detail"},
		config.RewriteParam{Name: "id", Value: "{id}"},
	),
	mustBuiltin(RulePageActionID, `^(?P<p>[^/]+)/(?P<action>[^/]+)/(?P<id>[^/]+)$`,
		config.RewriteParam{Name: "p", Value: "{p}"},
		config.RewriteParam{Name: "action", Value: "{action}"},
		config.RewriteParam{Name: "id", Value: "{id}"},
	),
	mustBuiltin(RulePageAction, `^(?P<p>[^/]+)/(?P<action>[^/]+)$`,
		config.RewriteParam{Name: "p", Value: "{p}"},
		config.RewriteParam{Name: "action", Value: "{action}"},
	),
	mustBuiltin(RulePage, `^(?P<p>[^/]+)$`,
		config.RewriteParam{Name: "p", Value: "{p}"},
	),
}

// builtinNames holds every name reserved by the builtin table,
// including the passthrough catch-all.
var builtinNames = func() map[string]bool {
	names := make(map[string]bool, len(builtinTable)+1)
	for _, r := range builtinTable {
		names[r.name] = true
	}
	names[RulePassthrough] = true
	return names
}()

// mustBuiltin builds one builtin rule. Builtin patterns are fixed, so
// a compile failure is a programming error.
func mustBuiltin(name, pattern string, params ...config.RewriteParam) *Rule {
	matcher, err := NewRegexMatcher(pattern)
	if err != nil {
		panic(fmt.Sprintf("rewrite: invalid builtin rule %s: %v", name, err))
	}

	rule := &Rule{
		name:    name,
		matcher: matcher,
		params:  make([]paramTemplate, 0, len(params)),
		builtin: true,
	}
	for _, p := range params {
		rule.params = append(rule.params, parseParamTemplate(p))
	}

	if err := checkCaptures(matcher, rule.params); err != nil {
		panic(fmt.Sprintf("rewrite: invalid builtin rule %s: %v", name, err))
	}

	return rule
}
