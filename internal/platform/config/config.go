package config

import (
	"os"
	"time"

	"github.com/spf13/cast"
)

// Config captures everything main needs to wire the portal.
type Config struct {
	Addr string

	DatabaseURL   string
	MigrationsDir string

	RedisURL string

	JWTSigningKey string
	JWTIssuer     string
	AdminToken    string
	AdminID       string
	AdminEmail    string

	PaymentWebhookSecret string

	MailFrom      string
	MailAPIURL    string
	MailAPIKey    string
	MailQueueSize int

	TOTPIssuer string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// Callers load .env files (godotenv) before calling this.
func FromEnv() Config {
	return Config{
		Addr:                 getenv("PORTAL_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("PORTAL_DATABASE_URL"),
		MigrationsDir:        getenv("PORTAL_MIGRATIONS_DIR", "migrations"),
		RedisURL:             os.Getenv("PORTAL_REDIS_URL"),
		JWTSigningKey:        getenv("PORTAL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:            getenv("PORTAL_JWT_ISSUER", "portal"),
		AdminToken:           os.Getenv("PORTAL_ADMIN_TOKEN"),
		AdminID:              getenv("PORTAL_ADMIN_ID", "admin"),
		AdminEmail:           os.Getenv("PORTAL_ADMIN_EMAIL"),
		PaymentWebhookSecret: os.Getenv("PORTAL_PAYMENT_WEBHOOK_SECRET"),
		MailFrom:             getenv("PORTAL_MAIL_FROM", "noreply@portal.local"),
		MailAPIURL:           os.Getenv("PORTAL_MAIL_API_URL"),
		MailAPIKey:           os.Getenv("PORTAL_MAIL_API_KEY"),
		MailQueueSize:        cast.ToInt(getenv("PORTAL_MAIL_QUEUE_SIZE", "256")),
		TOTPIssuer:           getenv("PORTAL_TOTP_ISSUER", "VolunteerPortal"),
		ShutdownTimeout:      cast.ToDuration(getenv("PORTAL_SHUTDOWN_TIMEOUT", "10s")),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
