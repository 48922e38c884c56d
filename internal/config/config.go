package config

import (
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
	CORSAllowedOrigins []string

	// Upstream clinic backend
	UpstreamBaseURL      string
	UpstreamTimeout      time.Duration
	UpstreamMaxParallel  int
	TokenSigningSecret   string
	SessionTTL           time.Duration
	DirectoryCacheTTL    time.Duration
	DefaultClinicTZ      string
	CalendarEarliestHour int
	CalendarLatestHour   int

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Email: "sendgrid" (default) or "ses"
	EmailProvider    string
	EmailFromAddress string
	EmailFromName    string
	SendGridAPIKey   string
	AWSRegion        string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		UpstreamBaseURL:      strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "http://localhost:5000/api"), "/"),
		UpstreamTimeout:      getEnvAsDuration("UPSTREAM_TIMEOUT", 20*time.Second),
		UpstreamMaxParallel:  getEnvAsInt("UPSTREAM_MAX_PARALLEL", 4),
		TokenSigningSecret:   getEnv("TOKEN_SIGNING_SECRET", ""),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		DirectoryCacheTTL:    getEnvAsDuration("DIRECTORY_CACHE_TTL", 2*time.Minute),
		DefaultClinicTZ:      getEnv("DEFAULT_CLINIC_TZ", "UTC"),
		CalendarEarliestHour: getEnvAsInt("CALENDAR_EARLIEST_HOUR", 8),
		CalendarLatestHour:   getEnvAsInt("CALENDAR_LATEST_HOUR", 18),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		EmailProvider:    getEnv("EMAIL_PROVIDER", "sendgrid"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Clinic Desk"),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
	}
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

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
