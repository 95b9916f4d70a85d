package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "v1", cfg.Cache.SchemaVersion)
	assert.Equal(t, ProviderMemory, cfg.Cache.Volatile)
	assert.Equal(t, ProviderMemory, cfg.Cache.Durable)
	assert.Equal(t, 2, cfg.Fallback.MaxConcurrency)
	assert.Equal(t, 12*time.Hour, cfg.Cache.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, Default(), cfg)
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scorecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: http://api.example.com
  timeout: 3s
cache:
  schema_version: v2
  volatile: ristretto
  durable: badger
  badger_dir: /tmp/sc
  codec: msgpack
fallback:
  max_concurrency: 4
log:
  backend: zap
  format: json
`), 0o600))

	t.Setenv("SCORECACHE_FALLBACK_MAX_CONCURRENCY", "3")
	t.Setenv("SCORECACHE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "v2", cfg.Cache.SchemaVersion)
	assert.Equal(t, ProviderRistretto, cfg.Cache.Volatile)
	assert.Equal(t, ProviderBadger, cfg.Cache.Durable)
	assert.Equal(t, "msgpack", cfg.Cache.Codec)
	assert.Equal(t, 3, cfg.Fallback.MaxConcurrency, "env overrides file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "zap", cfg.Log.Backend)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Cache.Volatile = "memcached"
	cfg.Cache.Codec = "xml"
	cfg.Fallback.MaxConcurrency = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memcached")
	assert.Contains(t, err.Error(), "xml")
	assert.Contains(t, err.Error(), "max_concurrency")

	cfg = Default()
	cfg.Cache.Durable = ProviderRedis
	cfg.Cache.RedisAddr = ""
	assert.ErrorContains(t, cfg.Validate(), "redis_addr")
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("SCORECACHE_CACHE_DURABLE", "floppy")
	_, err := Load("")
	assert.ErrorContains(t, err, "floppy")
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
