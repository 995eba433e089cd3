package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "simpleaccounts", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "memory", cfg.Coordination.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Coordination.ReconcileTTL)
	assert.Equal(t, time.Hour, cfg.Coordination.PayrollTTL)
	assert.True(t, cfg.Coordination.SweepEnabled)
	assert.Equal(t, "memory", cfg.Sequence.Backend)
	assert.Equal(t, 4, cfg.Sequence.Padding)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
app:
  name: ledgerd
  env: production
database:
  host: db.internal
  port: 5433
coordination:
  backend: redis
  reconcile_ttl: 15m
sequence:
  padding: 6
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "ledgerd", cfg.App.Name)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "redis", cfg.Coordination.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Coordination.ReconcileTTL)
	assert.Equal(t, 6, cfg.Sequence.Padding)
	// Untouched keys keep their defaults.
	assert.Equal(t, time.Hour, cfg.Coordination.PayrollTTL)
	assert.Equal(t, "postgres", cfg.Database.User)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SIMPLEACCOUNTS_DATABASE_HOST", "env-db")
	t.Setenv("SIMPLEACCOUNTS_COORDINATION_BACKEND", "redis")
	t.Setenv("SIMPLEACCOUNTS_REDIS_PORT", "6380")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, "redis", cfg.Coordination.Backend)
	assert.Equal(t, 6380, cfg.Redis.Port)
}

func TestLoadValidation(t *testing.T) {
	t.Run("rejects unknown coordination backend", func(t *testing.T) {
		t.Setenv("SIMPLEACCOUNTS_COORDINATION_BACKEND", "etcd")
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "coordination.backend")
	})

	t.Run("rejects unknown sequence backend", func(t *testing.T) {
		t.Setenv("SIMPLEACCOUNTS_SEQUENCE_BACKEND", "file")
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sequence.backend")
	})

	t.Run("rejects non-positive TTL", func(t *testing.T) {
		t.Setenv("SIMPLEACCOUNTS_COORDINATION_RECONCILE_TTL", "0s")
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TTLs must be positive")
	})
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "secret", DBName: "simpleaccounts", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=simpleaccounts sslmode=disable",
		db.DSN())

	redis := RedisConfig{Host: "cache.internal", Port: 6379}
	assert.Equal(t, "cache.internal:6379", redis.Addr())
}
