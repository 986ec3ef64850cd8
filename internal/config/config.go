package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Gateway modes.
const (
	GatewayModeMock = "mock"
	GatewayModeLive = "live"
)

// minSecretLen is the smallest webhook secret accepted in live mode. An
// empty or placeholder secret would still produce deterministic HMACs, so a
// misconfigured live deployment must refuse to start instead.
const minSecretLen = 16

type GatewayConfig struct {
	Mode    string
	BaseURL string
	KeyID   string
	Secret  string
	Timeout time.Duration
}

type Config struct {
	HTTPAddr      string
	DatabaseURL   string
	AllowedOrigin string
	Gateway       GatewayConfig
}

// Load reads configuration from the environment. Callers load .env first.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AllowedOrigin: getenv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		Gateway: GatewayConfig{
			Mode:    getenv("GATEWAY_MODE", GatewayModeMock),
			BaseURL: os.Getenv("GATEWAY_BASE_URL"),
			KeyID:   os.Getenv("GATEWAY_KEY_ID"),
			Secret:  os.Getenv("GATEWAY_SECRET"),
			Timeout: getenvDuration("GATEWAY_TIMEOUT_SECONDS", 10*time.Second),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	switch c.Gateway.Mode {
	case GatewayModeMock:
	case GatewayModeLive:
		if c.Gateway.KeyID == "" {
			return errors.New("GATEWAY_KEY_ID is required in live mode")
		}
		if len(c.Gateway.Secret) < minSecretLen {
			return errors.New("GATEWAY_SECRET must be at least 16 bytes in live mode")
		}
	default:
		return errors.New("GATEWAY_MODE must be mock or live")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
