package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// The handshake controller receives everything it needs from here at
// construction time; there are no process-wide mutable settings.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RefreshTokenDur   time.Duration

	// HandshakeTTL is the absolute lifetime of a login code. It is fixed at
	// creation and never extended by polling or confirmation attempts.
	HandshakeTTL time.Duration
	// HandshakeCodeBytes is the number of crypto/rand bytes per code;
	// 16 bytes gives 128 bits of entropy.
	HandshakeCodeBytes int
	// PollIntervalSeconds and PollMaxAttempts are hints returned to clients;
	// the TTL is the hard cutoff regardless of how often a client polls.
	PollIntervalSeconds int
	PollMaxAttempts     int
	// FrontendURL is the base for the scan URL embedded in QR codes.
	FrontendURL string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users      string
	Sessions   string
	Handshakes string
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
		DynamoTables: DynamoTables{
			Users:      getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:   getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Handshakes: getEnv("DYNAMO_TABLE_HANDSHAKES", "handshakes"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "qr-login-avatars"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		RefreshTokenDur:   time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		HandshakeTTL:        time.Duration(getEnvInt("HANDSHAKE_TTL_SECONDS", 300)) * time.Second,
		HandshakeCodeBytes:  getEnvInt("HANDSHAKE_CODE_BYTES", 16),
		PollIntervalSeconds: getEnvInt("HANDSHAKE_POLL_INTERVAL_SECONDS", 3),
		PollMaxAttempts:     getEnvInt("HANDSHAKE_POLL_MAX_ATTEMPTS", 100),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
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
