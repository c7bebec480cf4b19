package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "http-client.env.json", cfg.EnvFile)
	assert.Equal(t, ".snapshot.json", cfg.SnapshotFile)
	assert.Equal(t, 30000, cfg.Timeout)
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetNoColor())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".dothttp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: prod
envFile: envs.json
timeout: 5000
validateSSL: false
noColor: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "envs.json", cfg.EnvFile)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetNoColor())

	// Untouched settings keep their defaults.
	assert.Equal(t, ".snapshot.json", cfg.SnapshotFile)
	assert.True(t, cfg.GetFollowRedirects())
}

func TestFindAndLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestFindAndLoadConfigSearchOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dothttp.yml"), []byte("environment: fallback"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".dothttp.yaml"), []byte("environment: primary"), 0o644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Environment)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".dothttp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: [broken"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
