package rewrite

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCondition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{
			name: "host prefix",
			expr: `host.startsWith("admin.")`,
		},
		{
			name: "method equality",
			expr: `method == "GET"`,
		},
		{
			name: "header lookup",
			expr: `header["X-Catalog-Edition"] == "pro"`,
		},
		{
			name: "header membership",
			expr: `"X-Catalog-Edition" in header`,
		},
		{
			name: "combined",
			expr: `path.startsWith("/search/") && method != "POST"`,
		},
		{
			name:    "syntax error",
			expr:    "1 +",
			wantErr: true,
		},
		{
			name:    "unknown variable",
			expr:    `remote_addr == "127.0.0.1"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cond, err := compileCondition(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expr, cond.expr)
		})
	}
}

func TestCondition_Eval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expr     string
		input    Input
		expected bool
	}{
		{
			name: "true host condition",
			expr: `host.startsWith("admin.")`,
			input: Input{
				Path: "/search/books",
				Host: "admin.catalog.example.org",
			},
			expected: true,
		},
		{
			name: "false host condition",
			expr: `host.startsWith("admin.")`,
			input: Input{
				Path: "/search/books",
				Host: "catalog.example.org",
			},
			expected: false,
		},
		{
			name: "empty input never satisfies host conditions",
			expr: `host.startsWith("admin.")`,
			input: Input{
				Path: "/search/books",
			},
			expected: false,
		},
		{
			name: "header first value",
			expr: `header["X-Catalog-Edition"] == "pro"`,
			input: Input{
				Path:   "/detail/9",
				Header: http.Header{"X-Catalog-Edition": []string{"pro", "basic"}},
			},
			expected: true,
		},
		{
			name: "missing header key is an evaluation error",
			expr: `header["X-Catalog-Edition"] == "pro"`,
			input: Input{
				Path:   "/detail/9",
				Header: http.Header{},
			},
			expected: false,
		},
		{
			name: "membership guards missing headers",
			expr: `"X-Catalog-Edition" in header && header["X-Catalog-Edition"] == "pro"`,
			input: Input{
				Path:   "/detail/9",
				Header: http.Header{},
			},
			expected: false,
		},
		{
			name: "non-boolean result counts as false",
			expr: `path`,
			input: Input{
				Path: "/detail/9",
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cond, err := compileCondition(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cond.eval(tt.input))
		})
	}
}
