package rewrite

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// HeaderOriginalPath carries the pre-rewrite path to the upstream so
// the catalog can log or link the pretty form.
const HeaderOriginalPath = "X-Rewrite-Original-Path"

// Input carries the request attributes visible to rule matching. Path
// is required; host, method, and header are consulted only by custom
// rules with a condition.
type Input struct {
	// Path is the request path, e.g. "/detail/123".
	Path string

	// Host is the request host as sent by the client, possibly
	// including a port.
	Host string

	// Method is the HTTP method.
	Method string

	// Header carries the request headers. Conditions see the first
	// value of each header.
	Header http.Header
}

// Param is one resolved query parameter.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Resolution is the outcome of resolving a path against the rule
// table. Params preserve the declaration order of the matched rule's
// parameter templates.
type Resolution struct {
	// Matched reports whether a rule claimed the path. False means
	// passthrough: the path is forwarded unrewritten.
	Matched bool `json:"matched"`

	// Rule is the name of the rule that produced this outcome.
	Rule string `json:"rule"`

	// Params are the resolved query parameters in template order.
	Params []Param `json:"params,omitempty"`
}

// Get returns the value of the first parameter with the given name, or
// the empty string.
func (r Resolution) Get(name string) string {
	for _, p := range r.Params {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// Query returns the resolved parameters as url.Values.
func (r Resolution) Query() url.Values {
	q := make(url.Values, len(r.Params))
	for _, p := range r.Params {
		q.Add(p.Name, p.Value)
	}
	return q
}

// Encode returns the resolved parameters as a canonical k=v&k=v query
// string with URL escaping. Unlike url.Values.Encode, parameter order
// is preserved.
func (r Resolution) Encode() string {
	if len(r.Params) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range r.Params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Context keys.
type ctxKey string

const ctxKeyResolution ctxKey = "resolution"

// ContextWithResolution adds a resolution to the context.
func ContextWithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, ctxKeyResolution, res)
}

// ResolutionFromContext extracts the resolution from context. The
// second return value is false when the request never went through the
// rewrite handler.
func ResolutionFromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(ctxKeyResolution).(Resolution)
	return res, ok
}
