package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	DefaultWorkspaceID string
	DefaultTimeZone    string

	// WhatsApp Cloud API
	WhatsAppEnabled       bool
	WhatsAppVerifyToken   string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppAppSecret     string
	WhatsAppGraphBaseURL  string
	WhatsAppSendTimeout   time.Duration
	WhatsAppPhoneMapJSON  string
	WhatsAppDedupe        bool
	NotifyOnSendFailure   bool

	// Failure alert email
	EmailProvider         string
	NotifyEmailRecipients []string
	SendGridAPIKey        string
	SendGridFromEmail     string
	SendGridFromName      string
	SESFromEmail          string
	SESFromName           string
	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string

	AuthRateLimitPerSecond float64
	AuthRateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DefaultWorkspaceID: strings.TrimSpace(getEnv("DEFAULT_WORKSPACE_ID", "")),
		DefaultTimeZone:    getEnv("DEFAULT_TIMEZONE", "Asia/Dubai"),

		WhatsAppEnabled:       getEnvAsBool("WHATSAPP_ENABLED", true),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppGraphBaseURL:  getEnv("WHATSAPP_GRAPH_BASE_URL", "https://graph.facebook.com/v20.0"),
		WhatsAppSendTimeout:   getEnvAsDuration("WHATSAPP_SEND_TIMEOUT", 10*time.Second),
		WhatsAppPhoneMapJSON:  getEnv("WHATSAPP_PHONE_MAP_JSON", ""),
		WhatsAppDedupe:        getEnvAsBool("WHATSAPP_DEDUPE_MESSAGES", false),
		NotifyOnSendFailure:   getEnvAsBool("WHATSAPP_NOTIFY_ON_SEND_FAILURE", true),

		EmailProvider:         strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		NotifyEmailRecipients: getEnvAsList("NOTIFY_EMAIL_RECIPIENTS", nil),
		SendGridAPIKey:        getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:     getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:      getEnv("SENDGRID_FROM_NAME", "Rivo"),
		SESFromEmail:          getEnv("SES_FROM_EMAIL", ""),
		SESFromName:           getEnv("SES_FROM_NAME", "Rivo"),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),

		AuthRateLimitPerSecond: getEnvAsFloat("AUTH_RATE_LIMIT_RPS", 5),
		AuthRateLimitBurst:     getEnvAsInt("AUTH_RATE_LIMIT_BURST", 10),
	}
}

// Validate reports every missing required setting at once so the process
// can refuse to start with a complete message.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.WhatsAppEnabled {
		if strings.TrimSpace(c.WhatsAppVerifyToken) == "" {
			errs = append(errs, errors.New("WHATSAPP_VERIFY_TOKEN is required when WHATSAPP_ENABLED"))
		}
		if strings.TrimSpace(c.WhatsAppAccessToken) == "" {
			errs = append(errs, errors.New("WHATSAPP_ACCESS_TOKEN is required when WHATSAPP_ENABLED"))
		}
		if strings.TrimSpace(c.WhatsAppPhoneNumberID) == "" {
			errs = append(errs, errors.New("WHATSAPP_PHONE_NUMBER_ID is required when WHATSAPP_ENABLED"))
		}
		if c.DefaultWorkspaceID == "" && strings.TrimSpace(c.WhatsAppPhoneMapJSON) == "" {
			errs = append(errs, errors.New("DEFAULT_WORKSPACE_ID or WHATSAPP_PHONE_MAP_JSON is required when WHATSAPP_ENABLED"))
		}
	}
	if c.WhatsAppSendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("WHATSAPP_SEND_TIMEOUT must be positive, got %s", c.WhatsAppSendTimeout))
	}
	if c.EmailProvider == "ses" && len(c.NotifyEmailRecipients) > 0 && strings.TrimSpace(c.SESFromEmail) == "" {
		errs = append(errs, errors.New("SES_FROM_EMAIL is required when EMAIL_PROVIDER=ses"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
