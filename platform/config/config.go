// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetMigrationsEnabled() bool
}

// JWTConfig provides bearer token validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides the shared Redis connection used for caching.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// CacheConfig provides cache lifetimes.
type CacheConfig interface {
	GetAnalyticsCacheTTL() time.Duration
	GetIncentiveCacheTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetAnalyticsWarmupCron() string
	GetFollowUpSweepCron() string
}

// FollowUpConfig provides the cadence used after a lead is completed.
type FollowUpConfig interface {
	GetFollowUpEmailDelay() time.Duration
	GetFollowUpWhatsAppDelay() time.Duration
	GetFollowUpCallDelay() time.Duration
	GetPlanDetailsStatuses() []string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailProvider() string
	GetBrevoAPIKey() string
	GetSendGridAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// WhatsAppConfig provides settings for the GOWA WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
	GetWhatsAppRatePerSecond() float64
}

// CampaignConfig provides settings for bulk messaging.
type CampaignConfig interface {
	GetCampaignConcurrency() int
	GetCampaignMaxRecipients() int
}

// PhoneConfig provides phone normalization defaults.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// WebhookConfig provides settings for the scheduling webhook.
type WebhookConfig interface {
	GetWebhookSigningSecret() string
}

// MinIOConfig provides settings for S3-compatible export archiving.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucketExports() string
	GetMinIOPresignTTL() time.Duration
	IsMinIOEnabled() bool
}

// ObservabilityConfig provides error tracking and metrics settings.
type ObservabilityConfig interface {
	GetEnv() string
	GetSentryDSN() string
	GetSentryTracesSampleRate() float64
	GetMetricsEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	MigrationsEnabled      bool
	JWTAccessSecret        string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	RedisURL               string
	RedisTLSInsecure       bool
	AnalyticsCacheTTL      time.Duration
	IncentiveCacheTTL      time.Duration
	AsynqQueueName         string
	AsynqConcurrency       int
	AnalyticsWarmupCron    string
	FollowUpSweepCron      string
	FollowUpEmailDelay     time.Duration
	FollowUpWhatsAppDelay  time.Duration
	FollowUpCallDelay      time.Duration
	PlanDetailsStatuses    []string
	EmailProvider          string
	BrevoAPIKey            string
	SendGridAPIKey         string
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFromName          string
	EmailFromAddress       string
	WhatsAppURL            string
	WhatsAppKey            string
	WhatsAppDeviceID       string
	WhatsAppRatePerSecond  float64
	CampaignConcurrency    int
	CampaignMaxRecipients  int
	PhoneDefaultRegion     string
	WebhookSigningSecret   string
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinIOBucketExports     string
	MinIOPresignTTL        time.Duration
	SentryDSN              string
	SentryTracesSampleRate float64
	MetricsEnabled         bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetEnv() string                 { return c.Env }
func (c *Config) GetDatabaseURL() string         { return c.DatabaseURL }
func (c *Config) GetMigrationsEnabled() bool     { return c.MigrationsEnabled }
func (c *Config) GetJWTAccessSecret() string     { return c.JWTAccessSecret }
func (c *Config) GetHTTPAddr() string            { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool          { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string       { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool        { return c.CORSAllowCreds }
func (c *Config) GetRedisURL() string            { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool      { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string      { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int       { return c.AsynqConcurrency }
func (c *Config) GetAnalyticsWarmupCron() string { return c.AnalyticsWarmupCron }
func (c *Config) GetFollowUpSweepCron() string   { return c.FollowUpSweepCron }

func (c *Config) GetAnalyticsCacheTTL() time.Duration { return c.AnalyticsCacheTTL }
func (c *Config) GetIncentiveCacheTTL() time.Duration { return c.IncentiveCacheTTL }

func (c *Config) GetFollowUpEmailDelay() time.Duration    { return c.FollowUpEmailDelay }
func (c *Config) GetFollowUpWhatsAppDelay() time.Duration { return c.FollowUpWhatsAppDelay }
func (c *Config) GetFollowUpCallDelay() time.Duration     { return c.FollowUpCallDelay }
func (c *Config) GetPlanDetailsStatuses() []string        { return c.PlanDetailsStatuses }

func (c *Config) GetEmailProvider() string    { return c.EmailProvider }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetSendGridAPIKey() string   { return c.SendGridAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

func (c *Config) GetWhatsAppURL() string            { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string            { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string       { return c.WhatsAppDeviceID }
func (c *Config) GetWhatsAppRatePerSecond() float64 { return c.WhatsAppRatePerSecond }

func (c *Config) GetCampaignConcurrency() int     { return c.CampaignConcurrency }
func (c *Config) GetCampaignMaxRecipients() int   { return c.CampaignMaxRecipients }
func (c *Config) GetPhoneDefaultRegion() string   { return c.PhoneDefaultRegion }
func (c *Config) GetWebhookSigningSecret() string { return c.WebhookSigningSecret }

func (c *Config) GetMinIOEndpoint() string          { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string         { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string         { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool              { return c.MinIOUseSSL }
func (c *Config) GetMinIOBucketExports() string     { return c.MinIOBucketExports }
func (c *Config) GetMinIOPresignTTL() time.Duration { return c.MinIOPresignTTL }
func (c *Config) IsMinIOEnabled() bool              { return c.MinIOEndpoint != "" }

func (c *Config) GetSentryDSN() string               { return c.SentryDSN }
func (c *Config) GetSentryTracesSampleRate() float64 { return c.SentryTracesSampleRate }
func (c *Config) GetMetricsEnabled() bool            { return c.MetricsEnabled }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		MigrationsEnabled:      strings.EqualFold(getEnv("RUN_MIGRATIONS", "true"), "true"),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AnalyticsCacheTTL:      mustDuration(getEnv("ANALYTICS_CACHE_TTL", "10m")),
		IncentiveCacheTTL:      mustDuration(getEnv("INCENTIVE_CACHE_TTL", "1h")),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		AnalyticsWarmupCron:    getEnv("ANALYTICS_WARMUP_CRON", "*/15 * * * *"),
		FollowUpSweepCron:      getEnv("FOLLOWUP_SWEEP_CRON", "0 * * * *"),
		FollowUpEmailDelay:     mustDuration(getEnv("FOLLOWUP_EMAIL_DELAY", "24h")),
		FollowUpWhatsAppDelay:  mustDuration(getEnv("FOLLOWUP_WHATSAPP_DELAY", "72h")),
		FollowUpCallDelay:      mustDuration(getEnv("FOLLOWUP_CALL_DELAY", "168h")),
		PlanDetailsStatuses:    splitCSV(getEnv("PLAN_DETAILS_STATUSES", "completed")),
		EmailProvider:          strings.ToLower(getEnv("EMAIL_PROVIDER", "none")),
		BrevoAPIKey:            getEnv("BREVO_API_KEY", ""),
		SendGridAPIKey:         getEnv("SENDGRID_API_KEY", ""),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "BDA Portal"),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		WhatsAppURL:            getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:            getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:       getEnv("WHATSAPP_DEVICE_ID", ""),
		WhatsAppRatePerSecond:  mustFloat(getEnv("WHATSAPP_RATE_PER_SECOND", "2")),
		CampaignConcurrency:    mustInt(getEnv("CAMPAIGN_CONCURRENCY", "4")),
		CampaignMaxRecipients:  mustInt(getEnv("CAMPAIGN_MAX_RECIPIENTS", "500")),
		PhoneDefaultRegion:     strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "IN")),
		WebhookSigningSecret:   getEnv("WEBHOOK_SIGNING_SECRET", ""),
		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucketExports:     getEnv("MINIO_BUCKET_EXPORTS", "bda-exports"),
		MinIOPresignTTL:        mustDuration(getEnv("MINIO_PRESIGN_TTL", "15m")),
		SentryDSN:              getEnv("SENTRY_DSN", ""),
		SentryTracesSampleRate: mustFloat(getEnv("SENTRY_TRACES_SAMPLE_RATE", "0")),
		MetricsEnabled:         strings.EqualFold(getEnv("METRICS_ENABLED", "true"), "true"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	switch c.EmailProvider {
	case "none", "":
	case "brevo":
		if c.BrevoAPIKey == "" {
			return fmt.Errorf("BREVO_API_KEY is required when EMAIL_PROVIDER is brevo")
		}
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when EMAIL_PROVIDER is sendgrid")
		}
	case "smtp":
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER is smtp")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}
	if c.EmailProvider != "none" && c.EmailProvider != "" && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	return nil
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

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
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
