package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
apiVersion: prettygw.openshelf.io/v1alpha1
kind: Gateway
metadata:
  name: catalog-gateway
spec:
  listener:
    name: http
    port: 8080
  upstream:
    host: opac.internal
    port: 9000
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)

	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "prettygw.openshelf.io/v1alpha1", cfg.APIVersion)
	assert.Equal(t, "Gateway", cfg.Kind)
	assert.Equal(t, "catalog-gateway", cfg.Metadata.Name)
	assert.Equal(t, 8080, cfg.Spec.Listener.Port)
	assert.Equal(t, "opac.internal", cfg.Spec.Upstream.Host)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	configContent := `
apiVersion: prettygw.openshelf.io/v1alpha1
kind: Gateway
metadata:
  name: catalog-gateway
spec:
  listener:
    name: http
    port: 8080
  upstream:
    host: opac.internal
    port: 9000
`
	cfg, err := LoadFromReader(strings.NewReader(configContent))
	require.NoError(t, err)

	assert.Equal(t, UpstreamModeProxy, cfg.Spec.Upstream.Mode)
	assert.Equal(t, "http", cfg.Spec.Upstream.Scheme)
	assert.Equal(t, "/index.php", cfg.Spec.Upstream.FrontController)
	assert.Equal(t, QueryModeMerge, cfg.Spec.Rewrite.QueryMode)
	assert.Equal(t, 15*time.Second, cfg.Spec.Listener.ReadTimeout.Duration())
	assert.Equal(t, 60*time.Second, cfg.Spec.Listener.IdleTimeout.Duration())
}

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	configContent := `
apiVersion: prettygw.openshelf.io/v1alpha1
kind: Gateway
metadata:
  name: reader-gateway
spec:
  listener:
    name: http
    port: 8080
  upstream:
    mode: echo
  rewrite:
    rules:
      - name: search-books
        match:
          template: /search/{type}
        params:
          - name: p
            value: search
          - name: type
            value: "{type}"
`
	cfg, err := LoadFromReader(strings.NewReader(configContent))

	require.NoError(t, err)
	assert.Equal(t, "reader-gateway", cfg.Metadata.Name)
	assert.True(t, cfg.Spec.Upstream.IsEcho())
	require.Len(t, cfg.Spec.Rewrite.Rules, 1)

	rule := cfg.Spec.Rewrite.Rules[0]
	assert.Equal(t, "search-books", rule.Name)
	assert.Equal(t, "/search/{type}", rule.Match.Template)
	require.Len(t, rule.Params, 2)
	assert.Equal(t, "p", rule.Params[0].Name)
	assert.Equal(t, "search", rule.Params[0].Value)
	assert.Equal(t, "type", rule.Params[1].Name)
	assert.Equal(t, "{type}", rule.Params[1].Value)
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("invalid: yaml: content: ["))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_EnvSubstitution(t *testing.T) {
	// Not parallel because of t.Setenv.
	t.Setenv("CATALOG_HOST", "opac.example.org")

	configContent := `
apiVersion: prettygw.openshelf.io/v1alpha1
kind: Gateway
metadata:
  name: catalog-gateway
spec:
  listener:
    name: http
    port: ${CATALOG_PORT:-8080}
  upstream:
    host: ${CATALOG_HOST}
    port: 9000
`
	cfg, err := LoadFromReader(strings.NewReader(configContent))

	require.NoError(t, err)
	assert.Equal(t, "opac.example.org", cfg.Spec.Upstream.Host)
	assert.Equal(t, 8080, cfg.Spec.Listener.Port)
}

func TestSubstituteEnvVars(t *testing.T) {
	// Not parallel because subtests use t.Setenv.

	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{
			name:     "simple substitution",
			input:    "host: ${HOST}",
			envVars:  map[string]string{"HOST": "opac.internal"},
			expected: "host: opac.internal",
		},
		{
			name:     "with default value",
			input:    "port: ${PORT:-9090}",
			envVars:  map[string]string{},
			expected: "port: 9090",
		},
		{
			name:     "env var overrides default",
			input:    "port: ${PORT:-9090}",
			envVars:  map[string]string{"PORT": "8080"},
			expected: "port: 8080",
		},
		{
			name:     "multiple substitutions",
			input:    "host: ${HOST}, port: ${PORT}",
			envVars:  map[string]string{"HOST": "localhost", "PORT": "8080"},
			expected: "host: localhost, port: 8080",
		},
		{
			name:     "escaped dollar sign",
			input:    "password: $$ecret",
			envVars:  map[string]string{},
			expected: "password: $ecret",
		},
		{
			name:     "missing env var without default",
			input:    "host: ${MISSING_VAR}",
			envVars:  map[string]string{},
			expected: "host: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			result := substituteEnvVars(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("absolute path exists", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.yaml")
		err := os.WriteFile(configPath, []byte("test"), 0644)
		require.NoError(t, err)

		result, err := ResolveConfigPath(configPath)
		require.NoError(t, err)
		assert.Equal(t, configPath, result)
	})

	t.Run("absolute path not found", func(t *testing.T) {
		t.Parallel()
		_, err := ResolveConfigPath("/nonexistent/absolute/path.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file not found")
	})

	t.Run("relative path not found", func(t *testing.T) {
		t.Parallel()
		_, err := ResolveConfigPath("nonexistent.yaml")
		assert.Error(t, err)
	})
}

func TestResolveConfigPath_RelativeExists(t *testing.T) {
	// Not parallel because it changes the working directory.

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte("test"), 0644)
	require.NoError(t, err)

	oldWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(oldWd) }()
	_ = os.Chdir(tmpDir)

	result, err := ResolveConfigPath("config.yaml")
	require.NoError(t, err)
	assert.Contains(t, result, "config.yaml")
}
