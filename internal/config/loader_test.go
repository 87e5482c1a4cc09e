package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
  mode: release
scheduler:
  default_interval: 2m
event_source:
  provider: http
  base_url: https://registry.example.com/api
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.DefaultInterval)
	assert.Equal(t, "http", cfg.EventSource.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset sections fall back to defaults.
	assert.Equal(t, DefaultDailyCap, cfg.Notification.DefaultDailyCap)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [broken")
	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
server:
  mode: staging
`)
	cfg, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultEventSourceProvider, cfg.EventSource.Provider)
}

func TestLoadFromEnv_Override(t *testing.T) {
	t.Setenv("SENTINEL_SERVER_PORT", "7777")
	t.Setenv("SENTINEL_LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad("/nonexistent/config.yaml")
	})
}

func TestMustLoad_ReturnsConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8081
`)
	cfg := MustLoad(path)
	assert.Equal(t, 8081, cfg.Server.Port)
}
