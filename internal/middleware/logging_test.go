package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshelf/prettygw/internal/observability"
	"github.com/openshelf/prettygw/internal/util"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		path           string
		query          string
		handler        http.HandlerFunc
		expectedStatus int
	}{
		{
			name:   "logs successful GET request",
			method: http.MethodGet,
			path:   "/index.php",
			query:  "p=show_detail&id=12",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`<html></html>`))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "logs POST request",
			method: http.MethodPost,
			path:   "/index.php",
			query:  "p=login",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:   "logs error response",
			method: http.MethodGet,
			path:   "/index.php",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal error"}`))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:   "logs not found",
			method: http.MethodGet,
			path:   "/favicon.ico",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger := observability.NopLogger()
			middleware := Logging(logger)

			handler := middleware(tt.handler)

			url := tt.path
			if tt.query != "" {
				url += "?" + tt.query
			}
			req := httptest.NewRequest(tt.method, url, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestLogging_SetsStartTime(t *testing.T) {
	t.Parallel()

	logger := observability.NopLogger()
	middleware := Logging(logger)

	var hasStartTime bool
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasStartTime = !util.StartTimeFromContext(r.Context()).IsZero()
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/sd=1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.True(t, hasStartTime)
}

func TestLogging_DefaultStatus(t *testing.T) {
	t.Parallel()

	logger := observability.NopLogger()
	middleware := Logging(logger)

	// Handler writes the body without an explicit WriteHeader.
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/start", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "implicit 200", rec.Body.String())
}

func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	rw.WriteHeader(http.StatusTeapot)
	n, err := rw.Write([]byte("short and stout"))

	assert.NoError(t, err)
	assert.Equal(t, 15, n)
	assert.Equal(t, http.StatusTeapot, rw.status)
	assert.Equal(t, 15, rw.size)
}

func TestResponseWriter_Flush(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	rw.Flush()

	assert.True(t, rec.Flushed)
}
