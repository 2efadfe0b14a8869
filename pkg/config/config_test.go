package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the minimum environment for LoadConfig to validate
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ORGWIKI_DIRECTORY_ENDPOINT", "https://directory.example.com")
	t.Setenv("ORGWIKI_DIRECTORY_API_KEY", "secret")
	t.Setenv("ORGWIKI_ROOT_ORG_ID", "org-root")
	t.Setenv("ORGWIKI_ADMIN_EMAILS", "root@example.com")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.Origins)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ORGWIKI_PORT", "9999")
	t.Setenv("ORGWIKI_ADMIN_EMAILS", "a@example.com, b@example.com")
	t.Setenv("ORGWIKI_LOG_LEVEL", "debug")
	t.Setenv("ORGWIKI_METRICS_ENABLED", "false")
	t.Setenv("ORGWIKI_DIRECTORY_TIMEOUT", "30s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Admin.Emails)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 30*time.Second, cfg.Directory.Timeout)
}

func TestLoadConfigFromFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
server:
  port: "8181"
  read_timeout: "5s"
directory:
  endpoint: "https://dir.internal"
cors:
  origins:
    - "https://wiki.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	// Environment wins over the file for the endpoint
	t.Setenv("ORGWIKI_DIRECTORY_ENDPOINT", "https://directory.example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://wiki.example.com"}, cfg.CORS.Origins)
	assert.Equal(t, "https://directory.example.com", cfg.Directory.Endpoint)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing endpoint", "ORGWIKI_DIRECTORY_ENDPOINT"},
		{"missing api key", "ORGWIKI_DIRECTORY_API_KEY"},
		{"missing root org", "ORGWIKI_ROOT_ORG_ID"},
		{"missing admin emails", "ORGWIKI_ADMIN_EMAILS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ORGWIKI_LOG_LEVEL", "verbose")

	_, err := LoadConfig("")
	assert.Error(t, err)

	setRequiredEnv(t)
	t.Setenv("ORGWIKI_LOG_LEVEL", "info")
	t.Setenv("ORGWIKI_DIRECTORY_ENDPOINT", "ftp://directory.example.com")

	_, err = LoadConfig("")
	assert.Error(t, err)
}
