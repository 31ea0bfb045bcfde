package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	ClerkSecretKey     string `envconfig:"CLERK_SECRET_KEY" required:"true"`
	ClerkWebhookSecret string `envconfig:"CLERK_WEBHOOK_SECRET"`

	// TrustProxyHeaders keys rate limiting on X-Forwarded-For. Enable only
	// behind a proxy that overwrites the header.
	TrustProxyHeaders bool `envconfig:"TRUST_PROXY_HEADERS"`

	MetricsUser string `envconfig:"METRICS_USER" default:"admin"`
	MetricsPass string `envconfig:"METRICS_PASS"`
	PprofSecret string `envconfig:"PPROF_SECRET"`

	FCMCredentialsFile string `envconfig:"FCM_CREDENTIALS_FILE" default:"./firebase-service-account.json"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	// ReferenceTimezone is the location used to bucket reading sessions
	// into calendar days for streak math.
	ReferenceTimezone string `envconfig:"REFERENCE_TIMEZONE" default:"UTC"`

	// ReminderHourUTC is when the evening streak-at-risk job fires.
	ReminderHourUTC int `envconfig:"REMINDER_HOUR_UTC" default:"19"`
}

// Load reads .env if present, then the environment.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
