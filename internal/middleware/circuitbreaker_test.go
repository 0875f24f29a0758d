package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
)

func testBreakerSettings() CircuitBreakerSettings {
	return CircuitBreakerSettings{
		FailureRatio:     0.5,
		MinRequests:      3,
		Timeout:          100 * time.Millisecond,
		HalfOpenRequests: 1,
	}
}

func TestNewCircuitBreaker(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("upstream", testBreakerSettings())
	require.NotNil(t, cb)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestNewCircuitBreaker_DefaultsApplied(t *testing.T) {
	t.Parallel()

	// Zero settings fall back to the configured defaults instead of a
	// breaker that can never trip.
	cb := NewCircuitBreaker("upstream", CircuitBreakerSettings{})
	require.NotNil(t, cb)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_Execute(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("upstream", testBreakerSettings())

	result, err := cb.Execute(func() (interface{}, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestCircuitBreaker_Execute_WithError(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("upstream", testBreakerSettings())

	result, err := cb.Execute(func() (interface{}, error) {
		return nil, assert.AnError
	})

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	var transitions []string
	cb := NewCircuitBreaker("upstream",
		CircuitBreakerSettings{
			FailureRatio:     0.5,
			MinRequests:      3,
			Timeout:          time.Minute,
			HalfOpenRequests: 1,
		},
		WithCircuitBreakerStateCallback(func(name string, state int) {
			transitions = append(transitions, gobreaker.State(state).String())
		}),
	)

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, assert.AnError
		})
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())
	require.NotEmpty(t, transitions)
	assert.Equal(t, "open", transitions[len(transitions)-1])
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		handlerStatus  int
		expectedStatus int
	}{
		{
			name:           "successful request passes through",
			handlerStatus:  http.StatusOK,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "client error passes through",
			handlerStatus:  http.StatusNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "server error passes through but counts as failure",
			handlerStatus:  http.StatusBadGateway,
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cb := NewCircuitBreaker("upstream", testBreakerSettings())
			middleware := CircuitBreakerMiddleware(cb)

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			}))

			req := httptest.NewRequest(http.MethodGet, "/detail/9", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestCircuitBreakerMiddleware_OpenState(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("upstream", CircuitBreakerSettings{
		FailureRatio:     0.5,
		MinRequests:      2,
		Timeout:          time.Minute,
		HalfOpenRequests: 1,
	})
	middleware := CircuitBreakerMiddleware(cb)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	// Trip the breaker with consecutive 5xx responses
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sd=1", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	}

	require.Equal(t, gobreaker.StateOpen, cb.State())

	// Open breaker rejects without reaching the handler
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sd=1", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, ErrServiceUnavailable, rec.Body.String())
}

func TestCircuitBreakerMiddleware_RecoversAfterTimeout(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("upstream", CircuitBreakerSettings{
		FailureRatio:     0.5,
		MinRequests:      2,
		Timeout:          50 * time.Millisecond,
		HalfOpenRequests: 1,
	})
	middleware := CircuitBreakerMiddleware(cb)

	failing := true
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/start", nil))
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	// After the open timeout the breaker probes half-open and a
	// successful response closes it again.
	failing = false
	time.Sleep(80 * time.Millisecond)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/start", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreakerFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *config.CircuitBreakerConfig
	}{
		{
			name: "nil config returns passthrough",
			cfg:  nil,
		},
		{
			name: "disabled config returns passthrough",
			cfg:  &config.CircuitBreakerConfig{Enabled: false},
		},
		{
			name: "enabled config wraps handler",
			cfg: &config.CircuitBreakerConfig{
				Enabled:          true,
				Threshold:        0.5,
				MinRequests:      10,
				Timeout:          config.Duration(30 * time.Second),
				HalfOpenRequests: 2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := CircuitBreakerFromConfig(tt.cfg, observability.NopLogger())
			require.NotNil(t, mw)

			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/start", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
