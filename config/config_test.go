package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskmgr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, "taskmgr.db", cfg.Database.Path)
	assert.False(t, cfg.Database.Debug)
	assert.Equal(t, "taskmgr", cfg.JWT.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, time.Minute, cfg.StatsCache.TTL)
	assert.Equal(t, "taskmgr:stats:", cfg.StatsCache.Prefix)
	assert.Equal(t, 100, cfg.Notifications.InboxSize)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Log.SlowServiceThreshold)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 8080
database:
  path: /var/lib/taskmgr/tasks.db
  debug: true
jwt:
  secret: s3cret
  access_ttl: 5m
redis:
  addr: localhost:6379
stats_cache:
  ttl: 30s
seed:
  file: users.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "/var/lib/taskmgr/tasks.db", cfg.Database.Path)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL, "unset keys keep their defaults")
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 30*time.Second, cfg.StatsCache.TTL)
	assert.Equal(t, "users.yaml", cfg.SeedFile)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "http:\n  port: 8080\n")
	t.Setenv("TASKMGR_HTTP_PORT", "9090")
	t.Setenv("TASKMGR_JWT_SECRET", "from-env")
	t.Setenv("TASKMGR_REDIS_ADDR", "cache:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "http:\n  port: 70000\n"},
		{"empty secret", "jwt:\n  secret: \"\"\n"},
		{"zero cache ttl", "stats_cache:\n  ttl: 0s\n"},
		{"empty inbox", "notifications:\n  inbox_size: 0\n"},
		{"empty database path", "database:\n  path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
