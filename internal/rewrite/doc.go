// Package rewrite implements the rule engine that maps pretty catalog
// paths to the query strings the legacy front controller expects, for
// example /detail/123 to p=show_detail&id=123.
//
// A RuleSet is compiled once from configuration and is immutable
// afterwards: matching is a pure function of the request attributes
// and the static table, safe for unlimited concurrent use. Custom
// rules are evaluated first in configuration order, then the builtin
// catalog table, then the passthrough catch-all, so every input
// resolves to exactly one outcome.
package rewrite
