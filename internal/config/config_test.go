package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "flatfile", cfg.StoreBackend)
	assert.Equal(t, "./passfile.txt", cfg.CredentialsPath)
	assert.Equal(t, "./CommonPassword.txt", cfg.BlocklistPath)
	assert.Equal(t, "./failed_attempts.log", cfg.AuditLogPath)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.SessionSecret)
	assert.Equal(t, "*/5 * * * *", cfg.WatchdogSchedule)
	assert.Equal(t, 10, cfg.FailedLoginAlertThreshold)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("FAILED_LOGIN_ALERT_THRESHOLD", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.FailedLoginAlertThreshold)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL", "soon")
	_, err = Load()
	assert.Error(t, err)
}
