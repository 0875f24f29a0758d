package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	var cfg struct {
		Timeout Duration `yaml:"timeout"`
	}

	err := yaml.Unmarshal([]byte(`timeout: 1h30m`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Timeout.Duration())

	err = yaml.Unmarshal([]byte(`timeout: ""`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Timeout.Duration())

	err = yaml.Unmarshal([]byte(`timeout: fast`), &cfg)
	assert.Error(t, err)
}

func TestDuration_MarshalYAML(t *testing.T) {
	t.Parallel()

	out, err := yaml.Marshal(struct {
		Timeout Duration `yaml:"timeout"`
	}{Timeout: Duration(15 * time.Second)})

	require.NoError(t, err)
	assert.Contains(t, string(out), "timeout: 15s")
}

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"45s"`), &d))
	assert.Equal(t, 45*time.Second, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.Equal(t, time.Duration(0), d.Duration())

	out, err := json.Marshal(Duration(2 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, `"2m0s"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
}

func TestDuration_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "5s", Duration(5*time.Second).String())
	assert.Equal(t, "0s", Duration(0).String())
}
