package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	FileEnv, "HTTP_PORT", "BACKEND_BASE_URL", "API_URL", "REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"STORAGE_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "STORAGE_TTL", "SQLITE_PATH", "MONGO_URI",
	"MONGO_DB_NAME", "RECEIPT_DIR", "LOG_LEVEL", "LOG_DEV", "CATALOG_PAGE_LIMIT", "SESSION_IDLE_TTL",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingBaseURL(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_BASE_URL", "https://backend.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 100, cfg.CatalogPageLimit)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_APIURLFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_URL", "https://legacy.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example", cfg.BackendBaseURL)

	t.Setenv("BACKEND_BASE_URL", "https://backend.example")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://backend.example", cfg.BackendBaseURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend_base_url: https://file.example
request_timeout: 5s
storage:
  driver: redis
  redis_addr: redis:6379
  ttl: 720h
receipt:
  dir: /var/receipts
log:
  level: debug
`), 0o644))
	t.Setenv(FileEnv, path)
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("LOG_DEV", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://file.example", cfg.BackendBaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache:6380", cfg.Storage.RedisAddr, "env wins over file")
	assert.Equal(t, 720*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, "/var/receipts", cfg.Receipt.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_BASE_URL", "https://backend.example")

	t.Setenv("REQUEST_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "REQUEST_TIMEOUT")

	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("STORAGE_DRIVER", "cassandra")
	_, err = Load()
	assert.ErrorIs(t, err, ErrUnknownDriver)

	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
