package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"CRA_ADDR", "CRA_CACHE_BACKEND", "CRA_CACHE_TTL", "KAFKA_BROKERS", "REDIS_URL", "DATABASE_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 2023, cfg.Sources.ACSYear)
	assert.Equal(t, "https://api.census.gov/data", cfg.Sources.ACSURL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "cra.snapshots", cfg.Kafka.Topic)
	assert.Equal(t, 30*time.Minute, cfg.State.IdleTTL)
	assert.Equal(t, time.Minute, cfg.State.CleanupInterval)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CRA_ADDR", ":9090")
	t.Setenv("CRA_CACHE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CRA_CACHE_TTL", "15m")
	t.Setenv("CRA_SOURCE_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 3*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	t.Run("malformed numbers", func(t *testing.T) {
		t.Setenv("CRA_ACS_YEAR", "twenty")
		t.Setenv("CRA_CACHE_TTL", "soon")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CRA_ACS_YEAR")
		assert.Contains(t, err.Error(), "CRA_CACHE_TTL")
	})

	t.Run("redis backend without url", func(t *testing.T) {
		t.Setenv("CRA_CACHE_BACKEND", "redis")
		t.Setenv("REDIS_URL", "")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "REDIS_URL")
	})

	t.Run("non-positive cleanup interval", func(t *testing.T) {
		t.Setenv("CRA_CLEANUP_INTERVAL", "0s")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "CRA_CLEANUP_INTERVAL")
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("CRA_CACHE_BACKEND", "memcached")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "memcached")
	})
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CRA_TEST_ONLY_ADDR=:7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CRA_TEST_ONLY_ADDR") })

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", os.Getenv("CRA_TEST_ONLY_ADDR"))
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
