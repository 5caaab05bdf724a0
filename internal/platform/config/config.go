package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Addr                     string        `env:"APP_ADDR" env-default:":8080"`
	DatabaseURL              string        `env:"DATABASE_URL"`
	JWTSecret                string        `env:"JWT_SECRET"`
	FrontendDir              string        `env:"FRONTEND_DIR" env-default:"frontend/dist"`
	Environment              string        `env:"APP_ENV" env-default:"development"`
	LogFile                  string        `env:"LOG_FILE"`
	SeedOrganisationName     string        `env:"SEED_ORGANISATION_NAME" env-default:"Default Organisation"`
	SeedOrganisationTimeZone string        `env:"SEED_ORGANISATION_TIME_ZONE" env-default:"UTC"`
	SeedAdminEmail           string        `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword        string        `env:"SEED_ADMIN_PASSWORD"`
	EmailFrom                string        `env:"EMAIL_FROM" env-default:"no-reply@example.com"`
	EmailEnabled             bool          `env:"EMAIL_ENABLED" env-default:"false"`
	SMTPHost                 string        `env:"SMTP_HOST"`
	SMTPPort                 int           `env:"SMTP_PORT" env-default:"587"`
	SMTPUser                 string        `env:"SMTP_USER"`
	SMTPPassword             string        `env:"SMTP_PASSWORD"`
	SlackEnabled             bool          `env:"SLACK_ENABLED" env-default:"false"`
	RunMigrations            bool          `env:"RUN_MIGRATIONS" env-default:"true"`
	RunSeed                  bool          `env:"RUN_SEED" env-default:"true"`
	MigrationsDir            string        `env:"MIGRATIONS_DIR" env-default:"migrations"`
	MaxBodyBytes             int64         `env:"MAX_BODY_BYTES" env-default:"1048576"`
	MaxUploadBytes           int64         `env:"MAX_UPLOAD_BYTES" env-default:"5242880"`
	RateLimitPerMinute       int           `env:"RATE_LIMIT_PER_MINUTE" env-default:"60"`
	ReminderTick             time.Duration `env:"REMINDER_TICK" env-default:"15m"`
	ReminderHour             int           `env:"REMINDER_HOUR" env-default:"9"`
	BroadcastWeekday         int           `env:"BROADCAST_WEEKDAY" env-default:"1"`
	BroadcastHour            int           `env:"BROADCAST_HOUR" env-default:"10"`
	MetricsEnabled           bool          `env:"METRICS_ENABLED" env-default:"true"`
	ReportDir                string        `env:"REPORT_DIR" env-default:"storage/reports"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot read config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == EnvProduction {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if _, err := time.LoadLocation(c.SeedOrganisationTimeZone); err != nil {
		return fmt.Errorf("SEED_ORGANISATION_TIME_ZONE is not a valid IANA zone: %w", err)
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.ReminderTick < time.Minute {
		return fmt.Errorf("REMINDER_TICK must be at least one minute")
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be between 0 and 23")
	}
	if c.BroadcastHour < 0 || c.BroadcastHour > 23 {
		return fmt.Errorf("BROADCAST_HOUR must be between 0 and 23")
	}
	if c.BroadcastWeekday < 0 || c.BroadcastWeekday > 6 {
		return fmt.Errorf("BROADCAST_WEEKDAY must be between 0 (Sunday) and 6 (Saturday)")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
