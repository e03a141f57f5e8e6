package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// WhatsApp Cloud API
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppAPIVersion    string
	WhatsAppGraphBase     string
	WebhookVerifyToken    string
	WhatsAppAppSecret     string
	WebhookRateLimit      float64
	WebhookRateBurst      int

	// Storefront copy and outbound links
	PharmacyName    string
	SupportPhone    string
	RegisterFormURL string
	AppDownloadURL  string
	CustomerCare    string
	AboutProgramURL string
	WelcomeTemplate string
	WelcomeImageURL string
	CatalogPath     string
	FollowUpDelay   time.Duration

	// Sessions, dedup and queueing
	SessionBackend       string
	SessionTTL           time.Duration
	SessionsTable        string
	DedupBackend         string
	DedupTTL             time.Duration
	UseMemoryQueue       bool
	WorkerCount          int
	ConversationQueueURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Orders
	ReceiptsBucket   string
	OrderNotifyEmail string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	AdminJWTSecret   string
	AdminCORSOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		WhatsAppToken:         getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAPIVersion:    getEnv("API_VERSION", "v21.0"),
		WhatsAppGraphBase:     getEnv("WHATSAPP_GRAPH_BASE", "https://graph.facebook.com"),
		WebhookVerifyToken:    getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WebhookRateLimit:      getEnvAsFloat("WEBHOOK_RATE_LIMIT", 20),
		WebhookRateBurst:      getEnvAsInt("WEBHOOK_RATE_BURST", 40),

		PharmacyName:    getEnv("PHARMACY_NAME", "Ganesh Medicals"),
		SupportPhone:    getEnv("SUPPORT_PHONE", "+91-9876543210"),
		RegisterFormURL: getEnv("REGISTER_FORM", ""),
		AppDownloadURL:  getEnv("DOWNLOAD_HEALTHEDGE_APP", ""),
		CustomerCare:    getEnv("CONTACT_CUSTOMER_CARE", ""),
		AboutProgramURL: getEnv("ABOUT_PROGRAM_URL", ""),
		WelcomeTemplate: getEnv("WELCOME_TEMPLATE", ""),
		WelcomeImageURL: getEnv("WELCOME_IMAGE_URL", ""),
		CatalogPath:     getEnv("CATALOG_PATH", ""),
		FollowUpDelay:   getEnvAsDuration("FOLLOW_UP_DELAY", 2*time.Second),

		SessionBackend:       strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", 0),
		SessionsTable:        getEnv("SESSIONS_TABLE", "whatsapp_sessions"),
		DedupBackend:         strings.ToLower(strings.TrimSpace(getEnv("DEDUP_BACKEND", "memory"))),
		DedupTTL:             getEnvAsDuration("DEDUP_TTL", 24*time.Hour),
		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 2),
		ConversationQueueURL: getEnv("CONVERSATION_QUEUE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ReceiptsBucket:   getEnv("RECEIPTS_BUCKET", ""),
		OrderNotifyEmail: getEnv("ORDER_NOTIFY_EMAIL", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "PharmaCare Orders"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AdminJWTSecret:   getEnv("ADMIN_JWT_SECRET", ""),
		AdminCORSOrigins: getEnvAsList("ADMIN_CORS_ORIGINS"),
	}
}

// Validate lists the required WhatsApp settings that are missing. Callers log
// the result; a partially configured bot still starts.
func (c *Config) Validate() []string {
	required := []struct {
		key   string
		value string
	}{
		{"WHATSAPP_TOKEN", c.WhatsAppToken},
		{"WHATSAPP_PHONE_NUMBER_ID", c.WhatsAppPhoneNumberID},
		{"WEBHOOK_VERIFY_TOKEN", c.WebhookVerifyToken},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if !c.UseMemoryQueue && strings.TrimSpace(c.ConversationQueueURL) == "" {
		missing = append(missing, "CONVERSATION_QUEUE_URL")
	}
	return missing
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

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
