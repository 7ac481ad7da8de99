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

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.UsingDevSecret())
	assert.Equal(t, 24*time.Hour, cfg.TokenExpiration)
	assert.Nil(t, cfg.EncryptionKey)
	assert.Equal(t, 60*time.Second, cfg.AI.RequestTimeout)
	assert.Nil(t, cfg.AI.Temperature)
	assert.Equal(t, time.Second, cfg.Trigger.RetryDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Render.RetryDelay)
	assert.Equal(t, 3, cfg.Render.MaxRetries)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_Env(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FORMASSIST_HTTP_PORT", "9090")
	t.Setenv("FORMASSIST_AI_ENDPOINT", "http://localhost:1234/v1/chat/completions")
	t.Setenv("FORMASSIST_AI_TEMPERATURE", "0.4")
	t.Setenv("FORMASSIST_TRIGGER_RETRY_DELAY", "250ms")
	t.Setenv("FORMASSIST_ALLOWED_ORIGINS", "chrome-extension://abc, http://localhost:3000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:1234/v1/chat/completions", cfg.AI.Endpoint)
	require.NotNil(t, cfg.AI.Temperature)
	assert.Equal(t, 0.4, *cfg.AI.Temperature)
	assert.Equal(t, 250*time.Millisecond, cfg.Trigger.RetryDelay)
	assert.Equal(t, []string{"chrome-extension://abc", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_PersistentStoreNeedsKey(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FORMASSIST_DATABASE_URL", "sqlite://data/formassist.db")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encryption_key is required")

	t.Setenv("FORMASSIST_ENCRYPTION_KEY", strings.Repeat("ab", 32))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Len(t, cfg.EncryptionKey, 32)

	t.Setenv("FORMASSIST_ENCRYPTION_KEY", "abcd")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(dir, "formassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: "7070"
log:
  format: json
  debug: true
render:
  max_retries: 5
allowed_origins:
  - chrome-extension://xyz
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, 5, cfg.Render.MaxRetries)
	assert.Equal(t, []string{"chrome-extension://xyz"}, cfg.AllowedOrigins)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
