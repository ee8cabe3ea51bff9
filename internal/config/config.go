package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	StoreBackend    string // "flatfile" or "sqlite"
	CredentialsPath string // flat credential record file
	DatabasePath    string // sqlite backend database file
	BlocklistPath   string // common-password blocklist, read-only
	AuditLogPath    string // failed-attempt audit log

	SessionTTL    time.Duration
	SessionSecret string // empty means a fresh random key per process

	WatchdogSchedule          string // standard cron expression
	FailedLoginAlertThreshold int
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}
	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, err
	}
	threshold, err := strconv.Atoi(getEnv("FAILED_LOGIN_ALERT_THRESHOLD", "10"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:                port,
		StoreBackend:              getEnv("STORE_BACKEND", "flatfile"),
		CredentialsPath:           getEnv("CREDENTIALS_PATH", "./passfile.txt"),
		DatabasePath:              getEnv("DATABASE_PATH", "./barleygate.db"),
		BlocklistPath:             getEnv("BLOCKLIST_PATH", "./CommonPassword.txt"),
		AuditLogPath:              getEnv("AUDIT_LOG_PATH", "./failed_attempts.log"),
		SessionTTL:                ttl,
		SessionSecret:             getEnv("SESSION_SECRET", ""),
		WatchdogSchedule:          getEnv("WATCHDOG_SCHEDULE", "*/5 * * * *"),
		FailedLoginAlertThreshold: threshold,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
