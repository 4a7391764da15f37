package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "/api/v1", cfg.Server.Prefix)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, DriverMemory, cfg.Cache.Driver)
	assert.Equal(t, DriverNone, cfg.Blob.Driver)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.DebounceWindow)
	assert.Equal(t, 5, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EDUZAP_SERVER_ADDR", ":9090")
	t.Setenv("EDUZAP_CACHE_DRIVER", "redis")
	t.Setenv("EDUZAP_REDIS_ADDR", "redis:6379")
	t.Setenv("EDUZAP_CACHE_TTL", "30s")
	t.Setenv("EDUZAP_SERVER_CORS_ORIGINS", "https://admin.example.com,https://m.example.com")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DriverRedis, cfg.Cache.Driver)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://admin.example.com", "https://m.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eduzap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  dsn: postgres://eduzap:secret@db:5432/eduzap?sslmode=disable
blob:
  driver: s3
  s3:
    bucket: images
    endpoint: http://minio:9000
`), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "images", cfg.Blob.S3.Bucket)
	assert.Equal(t, "http://minio:9000", cfg.Blob.S3.Endpoint)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	bad := cfg
	bad.Database.Driver = DriverPostgres
	bad.Blob.Driver = DriverCloudinary
	bad.Pagination.DefaultLimit = 500
	bad.Log.Format = "xml"
	err = bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"database.dsn", "blob.cloudinary", "pagination", "log.format"} {
		assert.Contains(t, err.Error(), want)
	}

	bad = cfg
	bad.Cache.Driver = "memcached"
	assert.ErrorContains(t, bad.Validate(), "cache.driver")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"service":"eduzap"`)

	_, err = NewLogger(LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestMaxImageBytes(t *testing.T) {
	n, err := BlobConfig{MaxImageSize: "5MB"}.MaxImageBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), n)

	n, err = BlobConfig{}.MaxImageBytes()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = BlobConfig{MaxImageSize: "lots"}.MaxImageBytes()
	assert.Error(t, err)
}
