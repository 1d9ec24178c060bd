package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 300*time.Second, cfg.Cache.SweepInterval)
	assert.Equal(t, 1, cfg.Cache.Shards)
	assert.True(t, cfg.Coalesce)
	assert.Equal(t, "/mnt/shared-cache", cfg.Mirror.Root)
	assert.Equal(t, OriginHTTP, cfg.Origin.Kind)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
cache:
  ttl: 10m
  shards: 8
  max_bytes: 1048576
  eviction: lru
coalesce: false
mirror:
  enabled: false
origin:
  kind: s3
  s3:
    endpoint: minio:9000
    bucket: images
    use_ssl: false
log:
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 8, cfg.Cache.Shards)
	assert.Equal(t, int64(1<<20), cfg.Cache.MaxBytes)
	assert.False(t, cfg.Coalesce)
	assert.False(t, cfg.Mirror.Enabled)
	assert.Equal(t, "images", cfg.Origin.S3.Bucket)
	assert.False(t, cfg.Origin.S3.UseSSL)

	// untouched sections keep their defaults
	assert.Equal(t, 300*time.Second, cfg.Cache.SweepInterval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvOriginToken, "tok")
	t.Setenv(EnvS3AccessKey, "ak")
	t.Setenv(EnvS3SecretKey, "sk")

	path := writeConfig(t, `
origin:
  token: from-file
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.Origin.Token)
	assert.Equal(t, "ak", cfg.Origin.S3.AccessKey)
	assert.Equal(t, "sk", cfg.Origin.S3.SecretKey)
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "cache:\n  size: 3\n"},
		{"bad duration", "cache:\n  ttl: soon\n"},
		{"zero shards", "cache:\n  shards: 0\n"},
		{"bad eviction", "cache:\n  eviction: random\n"},
		{"bad origin", "origin:\n  kind: ftp\n"},
		{"s3 without bucket", "origin:\n  kind: s3\n  s3:\n    endpoint: x\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"mirror without root", "mirror:\n  enabled: true\n  root: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}
