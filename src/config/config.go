package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string

	// TokenKey is a 64-char hex string (32 bytes) used to seal Plaid access
	// tokens at rest.
	TokenKey string

	// Daily refresh schedule, 24-hour clock, server-local time.
	RefreshHour   int
	RefreshMinute int
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		PlaidClientID: getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:   getEnv("PLAID_SECRET", ""),
		PlaidEnv:      getEnv("PLAID_ENV", "sandbox"),
		TokenKey:      getEnv("TOKEN_ENC_KEY", ""),
		RefreshHour:   getEnvInt("DAILY_REFRESH_HOUR", 6),
		RefreshMinute: getEnvInt("DAILY_REFRESH_MINUTE", 0),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		log.Fatal("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	if cfg.TokenKey == "" {
		log.Fatal("TOKEN_ENC_KEY is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %q", key, value)
	}
	return n
}
