package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath  string
	JWTPublicKeyPath   string
	SessionTTL         time.Duration
	SessionRememberTTL time.Duration
	SessionCookieName  string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	MailAppName  string

	OTP                    OTPConfig
	PendingRegistrationTTL time.Duration

	RedisURL       string
	SNSRegion      string
	SNSTopicARN    string
	GoogleClientID string   // comma-separated OAuth client IDs
	AllowedOrigins []string // CORS allowed origins

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-Ip. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users                string
	Sessions             string
	OTPs                 string
	PendingRegistrations string
}

// OTPConfig groups the one-time-code policy knobs.
type OTPConfig struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
	HourlyLimit    int
}

// IsProduction reports whether the service runs with production settings
// (secure cookies, JSON logs at info level).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:                getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:             getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			OTPs:                 getEnv("DYNAMO_TABLE_OTPS", "otps"),
			PendingRegistrations: getEnv("DYNAMO_TABLE_PENDING_REGISTRATIONS", "pending_registrations"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "thelyst-avatars"),

		JWTPrivateKeyPath:  getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:   getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionRememberTTL: getEnvDuration("SESSION_REMEMBER_TTL", 14*24*time.Hour),
		SessionCookieName:  getEnv("SESSION_COOKIE_NAME", "auth-session"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@thelyst.app"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailAppName:  getEnv("MAIL_APP_NAME", "TheLyst"),

		OTP: OTPConfig{
			TTL:            getEnvDuration("OTP_TTL", 10*time.Minute),
			MaxAttempts:    getEnvInt("OTP_MAX_ATTEMPTS", 5),
			ResendCooldown: getEnvDuration("OTP_RESEND_COOLDOWN", 30*time.Second),
			HourlyLimit:    getEnvInt("OTP_HOURLY_LIMIT", 5),
		},
		PendingRegistrationTTL: getEnvDuration("PENDING_REGISTRATION_TTL", 30*time.Minute),

		RedisURL:       getEnv("REDIS_URL", ""),
		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN:    getEnv("SNS_TOPIC_ARN", ""),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
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

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("10m", "36h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
