package retry

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
)

// IsTransientNetworkError reports whether err looks like a transient
// network failure worth retrying: timeouts, dial and connection errors,
// resets, and truncated responses. Permanent errors such as DNS
// resolution of a nonexistent host still match *net.OpError; the
// per-attempt cap keeps that harmless.
func IsTransientNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout() || urlErr.Temporary()
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	// The upstream closed the connection mid-response.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return false
}

// IsIdempotent reports whether an HTTP method is safe to replay against
// the catalog application. Only bodyless read methods qualify: PUT and
// DELETE are idempotent by RFC 9110 but their bodies are consumed by
// the first attempt, so they are never replayed.
func IsIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
