package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "http://localhost:8000", cfg.BackendBaseURL)
	assert.Equal(t, "/api/trip/", cfg.TripEndpoint)
	assert.Equal(t, time.Duration(0), cfg.RequestTimeout, "no timeout by default")
	assert.Equal(t, 0, cfg.MaxRetries, "no retry by default")
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.HistoryEnabled())
	assert.False(t, cfg.EmailEnabled())
	assert.False(t, cfg.BackendOAuthEnabled())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://planner.example.com")
	t.Setenv("REQUEST_TIMEOUT", "15s")
	t.Setenv("MAX_RETRIES", "2")
	t.Setenv("DATABASE_URL", "postgres://localhost/trips")
	t.Setenv("BACKEND_OAUTH_SCOPES", "trips:plan, logs:read ,")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://planner.example.com", cfg.BackendBaseURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, []string{"trips:plan", "logs:read"}, cfg.OAuthScopes())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "SERVER_PORT=9090\nSES_REGION=us-east-1\nSES_FROM_EMAIL=plans@example.com\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.True(t, cfg.EmailEnabled())
}

func TestLoadConfigRejectsRelativeBackendURL(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "/api")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
}
