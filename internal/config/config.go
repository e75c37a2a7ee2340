package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
type Config struct {
	Port               string
	DatabaseURL        string
	JWTSecret          string
	LogLevel           string
	Environment        string
	CORSOrigins        []string
	ExpirySweepSpec    string
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads configuration from environment variables and a .env file if
// present. godotenv never overrides variables already set in the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CORSOrigins = splitCSV(os.Getenv("CORS_ORIGINS"))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}

	cfg.ExpirySweepSpec = os.Getenv("EXPIRY_SWEEP_SPEC")
	if cfg.ExpirySweepSpec == "" {
		cfg.ExpirySweepSpec = "*/5 * * * *"
	}

	var err error
	cfg.RateLimitPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return value, nil
}

func splitCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
