// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"workflow_portal_backend/platform/apperr"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides data-plane connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// AuthServiceConfig provides settings for the hosted auth service.
type AuthServiceConfig interface {
	GetAuthServiceURL() string
	GetAuthServiceKey() string
	GetAuthJWTSecret() string
	GetSessionCallbackSecret() string
}

// BootstrapConfig provides timing settings for the session bootstrap.
type BootstrapConfig interface {
	GetBootstrapInitTimeout() time.Duration
	GetGuardFallbackTimeout() time.Duration
	GetSignOutPurgeDelay() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SettingsConfig provides settings for the Redis-backed settings store.
type SettingsConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetSettingsSecret() string
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketAvatars() string
	GetMinioBucketWorkflowArchives() string
	IsMinIOEnabled() bool
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// WebhookConfig provides settings for the automation webhook relay.
type WebhookConfig interface {
	GetAutomationWebhookURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	AuthServiceURL              string
	AuthServiceKey              string
	AuthJWTSecret               string
	SessionCallbackSecret       string
	BootstrapInitTimeout        time.Duration
	GuardFallbackTimeout        time.Duration
	SignOutPurgeDelay           time.Duration
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	AppBaseURL                  string
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	SettingsSecret              string
	MinIOEndpoint               string
	MinIOAccessKey              string
	MinIOSecretKey              string
	MinIOUseSSL                 bool
	MinIOMaxFileSize            int64
	MinioBucketAvatars          string
	MinioBucketWorkflowArchives string
	EmailEnabled                bool
	SMTPHost                    string
	SMTPPort                    int
	SMTPUsername                string
	SMTPPassword                string
	EmailFromName               string
	EmailFromAddress            string
	AutomationWebhookURL        string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// AuthServiceConfig implementation
func (c *Config) GetAuthServiceURL() string        { return c.AuthServiceURL }
func (c *Config) GetAuthServiceKey() string        { return c.AuthServiceKey }
func (c *Config) GetAuthJWTSecret() string         { return c.AuthJWTSecret }
func (c *Config) GetSessionCallbackSecret() string { return c.SessionCallbackSecret }

// BootstrapConfig implementation
func (c *Config) GetBootstrapInitTimeout() time.Duration { return c.BootstrapInitTimeout }
func (c *Config) GetGuardFallbackTimeout() time.Duration { return c.GuardFallbackTimeout }
func (c *Config) GetSignOutPurgeDelay() time.Duration    { return c.SignOutPurgeDelay }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig / SettingsConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) GetSettingsSecret() string { return c.SettingsSecret }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketAvatars() string {
	return c.MinioBucketAvatars
}
func (c *Config) GetMinioBucketWorkflowArchives() string {
	return c.MinioBucketWorkflowArchives
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// WebhookConfig implementation
func (c *Config) GetAutomationWebhookURL() string { return c.AutomationWebhookURL }

// Load reads configuration from environment variables.
// A missing AUTH_SERVICE_URL or AUTH_SERVICE_KEY is the only condition surfaced
// as the fatal unconfigured state; everything else degrades per-feature.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	authServiceKey := getEnv("AUTH_SERVICE_KEY", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		AuthServiceURL:              strings.TrimRight(getEnv("AUTH_SERVICE_URL", ""), "/"),
		AuthServiceKey:              authServiceKey,
		AuthJWTSecret:               getEnv("AUTH_JWT_SECRET", authServiceKey),
		SessionCallbackSecret:       getEnv("SESSION_CALLBACK_SECRET", authServiceKey),
		BootstrapInitTimeout:        mustDuration(getEnv("BOOTSTRAP_INIT_TIMEOUT", "2s")),
		GuardFallbackTimeout:        mustDuration(getEnv("GUARD_FALLBACK_TIMEOUT", "10s")),
		SignOutPurgeDelay:           mustDuration(getEnv("SIGNOUT_PURGE_DELAY", "5s")),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:                  getEnv("APP_BASE_URL", "http://localhost:5173"),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		SettingsSecret:              getEnv("SETTINGS_SECRET", ""),
		MinIOEndpoint:               getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:              getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:              getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                 strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:            mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketAvatars:          getEnv("MINIO_BUCKET_AVATARS", "avatars"),
		MinioBucketWorkflowArchives: getEnv("MINIO_BUCKET_WORKFLOW_ARCHIVES", "workflow-archives"),
		EmailEnabled:                emailEnabled,
		SMTPHost:                    getEnv("SMTP_HOST", ""),
		SMTPPort:                    int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:                getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                getEnv("SMTP_PASSWORD", ""),
		EmailFromName:               getEnv("EMAIL_FROM_NAME", "Workflow Portal"),
		EmailFromAddress:            getEnv("EMAIL_FROM_ADDRESS", ""),
		AutomationWebhookURL:        getEnv("AUTOMATION_WEBHOOK_URL", ""),
	}

	if cfg.AuthServiceURL == "" || cfg.AuthServiceKey == "" {
		return nil, apperr.Unconfigured("AUTH_SERVICE_URL and AUTH_SERVICE_KEY are required")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "") {
		return nil, apperr.Unconfigured("SMTP_HOST and EMAIL_FROM_ADDRESS are required when EMAIL_ENABLED is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, apperr.Unconfigured("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
