package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
	"server_address": ":3000",
	"database_dsn": "json-dsn",
	"upload_dir": "json-uploads",
	"token_ttl": "2h",
	"cors_allowed_origins": ["http://localhost:5173"]
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.RunAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadSize)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "disk", cfg.FileStorage)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.FileRemovalInterval)
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.Equal(t, "json-uploads", cfg.UploadDir)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("TOKEN_TTL", "30m")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
}

func TestConfigPriorityAllSources(t *testing.T) {
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("UPLOAD_DIR", "env-uploads")

	cfg, err := New(WithArgs([]string{"-a", ":6000"}))
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr)
	assert.Equal(t, "env-uploads", cfg.UploadDir)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
}

func TestConfigFileFromFlag(t *testing.T) {
	cfg, err := New(WithArgs([]string{"-c", writeTempJSON(t, testJSON)}))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxUploadSize)
}

func TestValidationFailures(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "short secret", key: "JWT_SECRET", value: "short"},
		{name: "bad subnet", key: "TRUSTED_SUBNET", value: "10.0.0.1"},
		{name: "unknown file storage", key: "FILE_STORAGE", value: "ftp"},
		{name: "s3 without bucket", key: "FILE_STORAGE", value: "s3"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv(testCase.key, testCase.value)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestInvalidJSONDuration(t *testing.T) {
	t.Setenv("CONFIG", writeTempJSON(t, `{"token_ttl": "forever"}`))

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}
