package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// flusherRecorder wraps httptest.ResponseRecorder and implements http.Flusher.
type flusherRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flusherRecorder) Flush() {
	f.flushed = true
}

func TestServerError_Error(t *testing.T) {
	t.Parallel()

	err := NewServerError(http.StatusBadGateway)
	assert.Equal(t, "server error: status 502", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
}

func TestStatusCapturingResponseWriter_Defaults(t *testing.T) {
	t.Parallel()

	w := NewStatusCapturingResponseWriter(httptest.NewRecorder())

	assert.Equal(t, http.StatusOK, w.StatusCode)
	assert.False(t, w.HeaderWritten)
}

func TestStatusCapturingResponseWriter_WriteHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"200 OK", http.StatusOK},
		{"404 Not Found", http.StatusNotFound},
		{"502 Bad Gateway", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			w := NewStatusCapturingResponseWriter(rec)

			w.WriteHeader(tt.statusCode)

			assert.Equal(t, tt.statusCode, w.StatusCode)
			assert.True(t, w.HeaderWritten)
			assert.Equal(t, tt.statusCode, rec.Code)
		})
	}
}

func TestStatusCapturingResponseWriter_WriteHeaderOnlyOnce(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewStatusCapturingResponseWriter(rec)

	w.WriteHeader(http.StatusNotFound)
	w.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusNotFound, w.StatusCode)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusCapturingResponseWriter_Write(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewStatusCapturingResponseWriter(rec)

	n, err := w.Write([]byte("p=show_detail&id=42"))

	assert.NoError(t, err)
	assert.Equal(t, 19, n)
	assert.True(t, w.HeaderWritten)
	assert.Equal(t, "p=show_detail&id=42", rec.Body.String())
}

func TestStatusCapturingResponseWriter_Flush(t *testing.T) {
	t.Parallel()

	rec := &flusherRecorder{ResponseRecorder: httptest.NewRecorder()}
	w := NewStatusCapturingResponseWriter(rec)

	w.Flush()

	assert.True(t, rec.flushed)
}
