package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	RecordsTable string
	S3BucketName string

	SMTPHost       string
	SMTPPort       int
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string
	SMTPEncryption string // "starttls" | "ssl" | "none"
	SMTPTimeout    time.Duration

	CodeTTL time.Duration

	RateLimitPerMinute int
	RateLimitBurst     int

	SNSRegion        string
	SNSAlertTopicARN string // empty disables delivery-failure alerts

	AllowedOrigins []string // CORS allowed origins
	PublicDir      string   // static files served at /, empty disables
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		RecordsTable: getEnv("DYNAMO_TABLE_RECORDS", "records"),
		S3BucketName: getEnv("S3_BUCKET_NAME", "doc-courier-documents"),

		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnvInt("SMTP_PORT", 1025),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPEncryption: getEnv("SMTP_ENCRYPTION", "none"),
		SMTPTimeout:    time.Duration(getEnvInt("SMTP_TIMEOUT_MS", 10000)) * time.Millisecond,

		CodeTTL: time.Duration(getEnvInt("CODE_TTL_MINUTES", 10)) * time.Minute,

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),

		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),
		SNSAlertTopicARN: getEnv("SNS_ALERT_TOPIC_ARN", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		PublicDir:      getEnv("PUBLIC_DIR", "./public"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
