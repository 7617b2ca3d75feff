package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, "data.db", cfg.DatabasePath)
	assert.Equal(t, 60*time.Second, cfg.DueCheck.Interval)
	assert.Equal(t, 5*time.Second, cfg.DueCheck.InitialDelay)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 300, cfg.RateLimit.Limit)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DUE_CHECK_INTERVAL", "10s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DATABASE_PATH", ":memory:")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.DueCheck.Interval)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, ":memory:", cfg.DatabasePath)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddress)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("http_address: \":7070\"\ndue_check:\n  interval: 30s\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.DueCheck.Interval)
	assert.Equal(t, "data.db", cfg.DatabasePath)
}

func TestLoad_RejectsNonPositiveDueCheckInterval(t *testing.T) {
	t.Setenv("DUE_CHECK_INTERVAL", "0s")

	_, err := Load("")
	assert.Error(t, err)
}
