package config

import (
	"os"
	"time"
)

// Config captures process-level configuration. FromEnv keeps main lean; every
// value has a development default so the service starts without a full
// environment.
type Config struct {
	Addr          string
	JWTSigningKey string

	DatabaseURL string
	RedisAddr   string

	GatewayBaseURL string
	GatewayAPIKey  string
	GeocoderURL    string
	StorageBaseURL string
	StorageToken   string

	MailGatewayURL   string
	MailGatewayToken string
	MailFrom         string
	OpsEmail         string

	KafkaBrokers    string
	AuditTopic      string
	UpstreamTimeout time.Duration
	ReminderEvery   time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:          envOr("AUSZUG_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   envOr("REDIS_ADDR", "localhost:6379"),

		GatewayBaseURL: envOr("GATEWAY_BASE_URL", "http://localhost:9090"),
		GatewayAPIKey:  os.Getenv("GATEWAY_API_KEY"),
		GeocoderURL:    envOr("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		StorageBaseURL: envOr("STORAGE_BASE_URL", "http://localhost:9091"),
		StorageToken:   os.Getenv("STORAGE_TOKEN"),

		MailGatewayURL:   envOr("MAIL_GATEWAY_URL", "https://api.postmarkapp.com"),
		MailGatewayToken: os.Getenv("MAIL_GATEWAY_TOKEN"),
		MailFrom:         envOr("MAIL_FROM", "service@grundbuchauszug.test"),
		OpsEmail:         envOr("OPS_EMAIL", "ops@grundbuchauszug.test"),

		KafkaBrokers:    envOr("KAFKA_BROKERS", "localhost:9092"),
		AuditTopic:      envOr("AUDIT_TOPIC", "auszug.audit"),
		UpstreamTimeout: durationOr("UPSTREAM_TIMEOUT", 30*time.Second),
		ReminderEvery:   durationOr("REMINDER_INTERVAL", 15*time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
