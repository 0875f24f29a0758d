package diag

import (
	"encoding/json"
	"net/http"

	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/rewrite"
	"github.com/openshelf/prettygw/internal/util"
)

// echoedHeaders are the request headers worth showing when verifying
// rewrite behavior: the forwarding chain, request correlation, and the
// rewrite marker itself.
var echoedHeaders = []string{
	"X-Forwarded-For",
	"X-Forwarded-Proto",
	"X-Forwarded-Host",
	"X-Request-Id",
	rewrite.HeaderOriginalPath,
	"User-Agent",
}

// EchoResponse is the JSON document the echo responder returns: the
// request variables the catalog front controller would have seen.
type EchoResponse struct {
	Method       string            `json:"method"`
	Host         string            `json:"host"`
	RemoteAddr   string            `json:"remoteAddr"`
	OriginalPath string            `json:"originalPath"`
	Path         string            `json:"path"`
	Query        string            `json:"query,omitempty"`
	Rule         string            `json:"rule,omitempty"`
	Matched      bool              `json:"matched"`
	Params       []rewrite.Param   `json:"params,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// Echo answers every request with an EchoResponse. It serves as the
// innermost handler in echo mode, taking the place of the upstream
// proxy.
type Echo struct {
	logger observability.Logger
}

// EchoOption is a functional option for configuring the echo
// responder.
type EchoOption func(*Echo)

// WithEchoLogger sets the logger for the echo responder.
func WithEchoLogger(logger observability.Logger) EchoOption {
	return func(e *Echo) {
		e.logger = logger
	}
}

// NewEcho creates the echo responder.
func NewEcho(opts ...EchoOption) *Echo {
	e := &Echo{
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ServeHTTP implements http.Handler.
func (e *Echo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := EchoResponse{
		Method:       r.Method,
		Host:         r.Host,
		RemoteAddr:   r.RemoteAddr,
		OriginalPath: originalPath(r),
		Path:         r.URL.Path,
		Query:        r.URL.RawQuery,
		Rule:         util.RuleFromContext(ctx),
	}

	if res, ok := rewrite.ResolutionFromContext(ctx); ok {
		resp.Matched = res.Matched
		resp.Params = res.Params
	}

	headers := make(map[string]string, len(echoedHeaders))
	for _, name := range echoedHeaders {
		if v := r.Header.Get(name); v != "" {
			headers[name] = v
		}
	}
	if len(headers) > 0 {
		resp.Headers = headers
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		e.logger.Error("failed to encode echo response",
			observability.Error(err),
		)
	}
}

// originalPath recovers the pre-rewrite path. The context value is set
// by the in-process rewrite handler; the header covers an echo
// responder deployed standalone behind a remote gateway. Falls back to
// the current path for requests that never passed a rewriter.
func originalPath(r *http.Request) string {
	if p := util.OriginalPathFromContext(r.Context()); p != "" {
		return p
	}
	if p := r.Header.Get(rewrite.HeaderOriginalPath); p != "" {
		return p
	}
	return r.URL.Path
}
