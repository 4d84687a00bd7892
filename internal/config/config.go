// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries need to start.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL     string
	DBMaxConns      int32
	DBMinConns      int32
	DBMaxConnIdle   time.Duration
	DBMaxConnLife   time.Duration

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// AuthzRules maps action names to CEL expressions overriding the
	// built-in role rules. Loaded from AUTHZ_RULES as a JSON object.
	AuthzRules map[string]string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("APP_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    int32(getEnvInt("DB_MAX_CONNS", 25)),
		DBMinConns:    int32(getEnvInt("DB_MIN_CONNS", 5)),
		DBMaxConnIdle: getEnvDuration("DB_MAX_CONN_IDLE", 30*time.Minute),
		DBMaxConnLife: getEnvDuration("DB_MAX_CONN_LIFE", time.Hour),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getEnv("JWT_ISSUER", "cartera"),
		JWTTTL:        getEnvDuration("JWT_TTL", 8*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if raw := os.Getenv("AUTHZ_RULES"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.AuthzRules); err != nil {
			return nil, fmt.Errorf("parse AUTHZ_RULES: %w", err)
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
