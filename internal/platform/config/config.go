package config

import (
	"fmt"
	"os"
	"time"
)

// Config captures process-level configuration. Secrets are mandatory: the
// process refuses to start without a signing key and an encryption key, and
// there are no development fallbacks.
type Config struct {
	Addr            string
	DatabaseURL     string
	JWTSigningKey   string
	TokenTTL        time.Duration
	TokenIssuer     string
	EncryptionKey   string // hex-encoded 32-byte AES key for biometric templates
	ShutdownTimeout time.Duration
}

// Load builds a Config from environment variables so main stays lean.
func Load() (Config, error) {
	cfg := Config{
		Addr:            envOr("ROLLCALL_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("ROLLCALL_DATABASE_URL"),
		TokenIssuer:     envOr("ROLLCALL_TOKEN_ISSUER", "rollcall"),
		TokenTTL:        time.Hour,
		ShutdownTimeout: 10 * time.Second,
	}

	if ttl := os.Getenv("ROLLCALL_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("parse ROLLCALL_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}

	cfg.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")
	if cfg.JWTSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY is required")
	}

	cfg.EncryptionKey = os.Getenv("BIOMETRIC_ENCRYPTION_KEY")
	if cfg.EncryptionKey == "" {
		return Config{}, fmt.Errorf("BIOMETRIC_ENCRYPTION_KEY is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
