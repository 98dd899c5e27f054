package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderDefaults(t *testing.T) {
	loader := NewLoader(t.TempDir(), Development)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sedcat", cfg.Metrics.Namespace)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 100, cfg.Render.DefaultPoints)
	assert.Equal(t, "erg cm-2 s-1", cfg.Render.DefaultFluxUnit)
	assert.Empty(t, cfg.Catalog.Variants)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Contains(t, cfg.LoadedFrom, "defaults")

	// Development gets the console format when none is configured.
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoaderFileOverrides(t *testing.T) {
	dir := t.TempDir()
	base := `
server:
  port: 9090
catalog:
  variants: ["gamma-cat"]
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(base), 0o644))

	prod := `
logging:
  level: error
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "production.yaml"), []byte(prod), 0o644))

	cfg, err := NewLoader(dir, Production).Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"gamma-cat"}, cfg.Catalog.Variants)
	// production.yaml overrides base.yaml.
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Len(t, cfg.LoadedFrom, 4) // defaults, base, production, environment
}

func TestLoaderEnvironmentVariables(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("CATALOG_VARIANTS", "gamma-cat, 3fhl")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENABLE_METRICS", "false")

	cfg, err := NewLoader(t.TempDir(), Development).Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"gamma-cat", "3fhl"}, cfg.Catalog.Variants)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestConfigValidation(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := NewLoader(t.TempDir(), Development).Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("rejects an out of range port", func(t *testing.T) {
		cfg := valid(t)
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects an unknown log level", func(t *testing.T) {
		cfg := valid(t)
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects inverted render y limits", func(t *testing.T) {
		cfg := valid(t)
		cfg.Render.YMin, cfg.Render.YMax = 1e-10, 1e-12
		assert.Error(t, cfg.Validate())
	})

	t.Run("accepts ordered render y limits", func(t *testing.T) {
		cfg := valid(t)
		cfg.Render.YMin, cfg.Render.YMax = 1e-14, 1e-9
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects tracing without an endpoint", func(t *testing.T) {
		cfg := valid(t)
		cfg.Tracing.Enabled = true
		cfg.Tracing.Endpoint = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects a malformed mirror URL", func(t *testing.T) {
		cfg := valid(t)
		cfg.Catalog.MirrorURL = "not a url"
		assert.Error(t, cfg.Validate())
	})
}

func TestGetEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"production": Production,
		"prod":       Production,
		"staging":    Staging,
		"":           Development,
		"anything":   Development,
	}
	for value, want := range cases {
		t.Setenv("SEDCAT_ENV", value)
		assert.Equal(t, want, getEnvironment(), "SEDCAT_ENV=%q", value)
	}
}
