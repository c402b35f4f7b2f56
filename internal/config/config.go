// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// defaultDBPassword is the development password rejected in production.
const defaultDBPassword = "changeme"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3ImagesBucket string
	S3FilesBucket  string
	S3PublicURL    string

	// Brief generation
	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string

	// Identity tokens
	JWTSecret string
	TokenTTL  time.Duration

	// Moderator account seeded at startup
	AdminEmail    string
	AdminPassword string

	// ClientIdle is how long an inactive browser's coordinator stays in memory.
	ClientIdle time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. It reports every missing required
// variable at once.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "dalley"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "dalley"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3ImagesBucket: envOrDefault("S3_BUCKET_IMAGES", "template-images"),
		S3FilesBucket:  envOrDefault("S3_BUCKET_FILES", "template-files"),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),

		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AdminEmail:    envOrDefault("ADMIN_EMAIL", "admin@dalley.local"),
		AdminPassword: envOrDefault("ADMIN_PASSWORD", "admin123"),
	}

	var problems []string

	var err error
	if cfg.TokenTTL, err = durationOrDefault("TOKEN_TTL", 7*24*time.Hour); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.ClientIdle, err = durationOrDefault("CLIENT_IDLE", 30*time.Minute); err != nil {
		problems = append(problems, err.Error())
	}

	required := []struct{ key, value string }{
		{"S3_ENDPOINT", cfg.S3Endpoint},
		{"S3_ACCESS_KEY", cfg.S3AccessKey},
		{"S3_SECRET_KEY", cfg.S3SecretKey},
		{"GEMINI_API_KEY", cfg.GeminiKey},
		{"JWT_SECRET", cfg.JWTSecret},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		problems = append(problems, "missing required variables: "+strings.Join(missing, ", "))
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			problems = append(problems, "POSTGRES_PASSWORD must be set in production")
		}
		if os.Getenv("ADMIN_PASSWORD") == "" {
			problems = append(problems, "ADMIN_PASSWORD must be set in production")
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return c.Env == "production"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
