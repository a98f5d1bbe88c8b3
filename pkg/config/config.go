package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Calendar  CalendarConfig
	SMTP      SMTPConfig
	Clinic    ClinicConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Reminder  ReminderConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// CalendarConfig holds the Google Calendar service account settings
type CalendarConfig struct {
	// Provider is "google" or "mock"
	Provider    string
	CalendarID  string
	ClientEmail string
	PrivateKey  string
	ProjectID   string
	Timeout     time.Duration
}

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

// ClinicConfig holds the business identity used in emails
type ClinicConfig struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// RateLimitConfig configures the booking endpoint rate limiter
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For header is honoured
	TrustedProxies []string
}

// ReminderConfig configures scheduled reminder emails
type ReminderConfig struct {
	Enabled     bool
	LeadTime    time.Duration
	Queue       string
	Concurrency int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Required variable names, grouped the way the test-config endpoint reports them.
var (
	CalendarVariables = []string{"GOOGLE_CALENDAR_ID", "GOOGLE_CLIENT_EMAIL", "GOOGLE_PRIVATE_KEY", "GOOGLE_PROJECT_ID"}
	EmailVariables    = []string{"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "CLINIC_EMAIL"}
	ClinicVariables   = []string{"CLINIC_NAME"}
)

var boundKeys = []string{
	"ENV",
	"SERVER_HOST", "SERVER_PORT", "ALLOWED_ORIGINS",
	"CALENDAR_PROVIDER", "GOOGLE_CALENDAR_ID", "GOOGLE_CLIENT_EMAIL", "GOOGLE_PRIVATE_KEY", "GOOGLE_PROJECT_ID", "CALENDAR_TIMEOUT",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_TIMEOUT",
	"CLINIC_NAME", "CLINIC_EMAIL", "CLINIC_PHONE", "CLINIC_ADDRESS",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "RATE_LIMIT_TRUSTED_PROXIES",
	"REMINDER_ENABLED", "REMINDER_LEAD_TIME", "REMINDER_QUEUE", "REMINDER_CONCURRENCY",
	"OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION", "OTEL_ENDPOINT", "OTEL_ENABLED",
}

// Load loads configuration from environment variables and an optional .env file.
// Missing required values are not an error here; see MissingVariables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("CALENDAR_PROVIDER", "google")
	v.SetDefault("CALENDAR_TIMEOUT", "10s")
	v.SetDefault("SMTP_TIMEOUT", "10s")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS", 5)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("REMINDER_ENABLED", true)
	v.SetDefault("REMINDER_LEAD_TIME", "24h")
	v.SetDefault("REMINDER_QUEUE", "reminders")
	v.SetDefault("REMINDER_CONCURRENCY", 5)
	v.SetDefault("OTEL_SERVICE_NAME", "clinic-booking")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_ENABLED", false)

	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	// The .env file is optional
	_ = v.ReadInConfig()

	cfg := &Config{
		Env: v.GetString("ENV"),
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Calendar: CalendarConfig{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("CALENDAR_PROVIDER"))),
			CalendarID:  strings.TrimSpace(v.GetString("GOOGLE_CALENDAR_ID")),
			ClientEmail: strings.TrimSpace(v.GetString("GOOGLE_CLIENT_EMAIL")),
			PrivateKey:  NormalizePrivateKey(v.GetString("GOOGLE_PRIVATE_KEY")),
			ProjectID:   strings.TrimSpace(v.GetString("GOOGLE_PROJECT_ID")),
			Timeout:     v.GetDuration("CALENDAR_TIMEOUT"),
		},
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(v.GetString("SMTP_HOST")),
			Port:     v.GetInt("SMTP_PORT"),
			User:     strings.TrimSpace(v.GetString("SMTP_USER")),
			Password: v.GetString("SMTP_PASS"),
			Timeout:  v.GetDuration("SMTP_TIMEOUT"),
		},
		Clinic: ClinicConfig{
			Name:    strings.TrimSpace(v.GetString("CLINIC_NAME")),
			Email:   strings.TrimSpace(v.GetString("CLINIC_EMAIL")),
			Phone:   strings.TrimSpace(v.GetString("CLINIC_PHONE")),
			Address: strings.TrimSpace(v.GetString("CLINIC_ADDRESS")),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Enabled:  v.GetBool("REDIS_ENABLED"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),

			TrustedProxies: splitList(v.GetString("RATE_LIMIT_TRUSTED_PROXIES")),
		},
		Reminder: ReminderConfig{
			Enabled:     v.GetBool("REMINDER_ENABLED"),
			LeadTime:    v.GetDuration("REMINDER_LEAD_TIME"),
			Queue:       v.GetString("REMINDER_QUEUE"),
			Concurrency: v.GetInt("REMINDER_CONCURRENCY"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
	}

	return cfg, nil
}

// NormalizePrivateKey turns escaped "\n" sequences from single-line env values into newlines
func NormalizePrivateKey(key string) string {
	return strings.TrimSpace(strings.ReplaceAll(key, `\n`, "\n"))
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// MissingVariables returns every required variable that is unset, in reporting order
func (c *Config) MissingVariables() []string {
	present := map[string]bool{
		"GOOGLE_CALENDAR_ID":  c.Calendar.CalendarID != "",
		"GOOGLE_CLIENT_EMAIL": c.Calendar.ClientEmail != "",
		"GOOGLE_PRIVATE_KEY":  c.Calendar.PrivateKey != "",
		"GOOGLE_PROJECT_ID":   c.Calendar.ProjectID != "",
		"SMTP_HOST":           c.SMTP.Host != "",
		"SMTP_PORT":           c.SMTP.Port > 0,
		"SMTP_USER":           c.SMTP.User != "",
		"SMTP_PASS":           c.SMTP.Password != "",
		"CLINIC_EMAIL":        c.Clinic.Email != "",
		"CLINIC_NAME":         c.Clinic.Name != "",
	}

	var missing []string
	for _, group := range [][]string{CalendarVariables, EmailVariables, ClinicVariables} {
		for _, name := range group {
			if !present[name] {
				missing = append(missing, name)
			}
		}
	}
	return missing
}

// MissingCalendarVariables returns the unset calendar credentials
func (c *Config) MissingCalendarVariables() []string {
	return filterMissing(c.MissingVariables(), CalendarVariables)
}

// MissingSMTPVariables returns the unset relay settings, excluding CLINIC_EMAIL
func (c *Config) MissingSMTPVariables() []string {
	return filterMissing(c.MissingVariables(), []string{"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS"})
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func filterMissing(missing, group []string) []string {
	var out []string
	for _, name := range missing {
		for _, g := range group {
			if name == g {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
