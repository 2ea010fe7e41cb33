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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9000
database:
  host: db.internal
  port: 5432
  user: lovance
  password: s3cret
  dbname: lovance
  sslmode: require
redis:
  host: cache.internal
  port: 6380
storage:
  bucket: lovance-media
  access_key: ak
  secret_key: sk
  endpoint: minio.internal:9000
  use_path_style: true
jwt:
  secret: topsecret
cleanup:
  enabled: true
  hour: 3
  minute: 15
  device_ttl: 168h
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "cache.internal:6380", cfg.Redis.Addr())
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, 3, cfg.Cleanup.Hour)
	assert.Equal(t, 15, cfg.Cleanup.Minute)
	assert.Equal(t, 168*time.Hour, cfg.Cleanup.DeviceTTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Equal(t,
		"host=db.internal port=5432 user=lovance password=s3cret dbname=lovance sslmode=require",
		cfg.Database.DSN())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
jwt:
  secret: x
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.Equal(t, 4, cfg.Cleanup.Hour)
	assert.Equal(t, 30, cfg.Cleanup.Minute)
	assert.Equal(t, 720*time.Hour, cfg.Cleanup.DeviceTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMidnightCleanupSchedule(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
jwt:
  secret: x
cleanup:
  enabled: true
  hour: 0
  minute: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// An explicit 00:00 schedule is honored, not replaced by the default.
	assert.Equal(t, 0, cfg.Cleanup.Hour)
	assert.Equal(t, 0, cfg.Cleanup.Minute)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}
