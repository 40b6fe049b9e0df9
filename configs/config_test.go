package configs_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovexcorp/mobi-mcp/configs"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MOBI_BASE_URL", "https://mobi.example.com")
	t.Setenv("MOBI_USERNAME", "admin")
	t.Setenv("MOBI_PASSWORD", "secret")
}

func TestLoad_FromEnvironment(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	setRequiredEnv(t)
	t.Setenv("MOBI_IGNORE_CERT", "true")
	t.Setenv("MOBI_HTTP_CLIENT_TIMEOUT", "7s")
	t.Setenv("MOBI_CONFIG_FILE", "")

	cfg, err := configs.Load()
	require.NoError(err)
	assert.Equal("https://mobi.example.com", cfg.BaseURL)
	assert.Equal("admin", cfg.Username)
	assert.Equal("secret", cfg.Password)
	assert.True(cfg.IgnoreCert)
	assert.Equal(7*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(":8080", cfg.ListenAddr)
	assert.Equal(5*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_MissingRequiredSettings(t *testing.T) {
	t.Setenv("MOBI_BASE_URL", "")
	t.Setenv("MOBI_USERNAME", "")
	t.Setenv("MOBI_PASSWORD", "")
	t.Setenv("MOBI_CONFIG_FILE", "")

	_, err := configs.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MOBI_BASE_URL")
	assert.Contains(t, err.Error(), "MOBI_USERNAME")
	assert.Contains(t, err.Error(), "MOBI_PASSWORD")
}

func TestLoad_FileFillsUnsetFields(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "mobi.yaml")
	require.NoError(os.WriteFile(path, []byte(
		"base_url: https://file.example.com\nusername: fileuser\npassword: filepass\nignore_cert: true\n",
	), 0o600))

	t.Setenv("MOBI_CONFIG_FILE", path)
	// Env wins for base URL, file fills the rest.
	t.Setenv("MOBI_BASE_URL", "https://env.example.com")

	cfg, err := configs.Load()
	require.NoError(err)
	assert.Equal("https://env.example.com", cfg.BaseURL)
	assert.Equal("fileuser", cfg.Username)
	assert.Equal("filepass", cfg.Password)
	assert.True(cfg.IgnoreCert)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MOBI_CONFIG_FILE", filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	_, err := configs.Load()
	require.Error(t, err)
}

func TestParsedLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "info", want: slog.LevelInfo},
		{in: "bogus", want: slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			cfg := configs.Config{LogLevel: tc.in}
			assert.Equal(t, tc.want, cfg.ParsedLogLevel())
		})
	}
}
