// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// AuthJWTSecret signs the bearer tokens carrying requester id and role.
	AuthJWTSecret string

	// SchedulingTimezone anchors date + "HH:MM" composition, e.g. "Asia/Kolkata".
	SchedulingTimezone string

	// TeleconsultEarlyStart is how long before the appointment a video
	// session may be opened.
	TeleconsultEarlyStart time.Duration

	// RoomLinkTTL bounds how long a provisioned room link is cached.
	RoomLinkTTL time.Duration

	VideoAPIBaseURL string
	VideoAPIKey     string
	VideoJoinBase   string

	OTPTTL time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                  getEnv("PORT", "8080"),
		Env:                   getEnv("ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisAddr:             getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisTLS:              getEnvAsBool("REDIS_TLS", false),
		AuthJWTSecret:         getEnv("AUTH_JWT_SECRET", ""),
		SchedulingTimezone:    getEnv("SCHEDULING_TZ", "UTC"),
		TeleconsultEarlyStart: getEnvAsDuration("TELECONSULT_EARLY_START", 10*time.Minute),
		RoomLinkTTL:           getEnvAsDuration("ROOM_LINK_TTL", 24*time.Hour),
		VideoAPIBaseURL:       getEnv("VIDEO_API_BASE_URL", ""),
		VideoAPIKey:           getEnv("VIDEO_API_KEY", ""),
		VideoJoinBase:         getEnv("VIDEO_JOIN_BASE", "https://video.curaflow.health"),
		OTPTTL:                getEnvAsDuration("OTP_TTL", 5*time.Minute),
		CORSAllowedOrigins:    getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping blanks
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
