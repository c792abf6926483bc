package session

import (
	"os"
	"strings"
	"time"
)

// Config defines runtime configuration for the session subsystem.
//
// Two independent signing secrets are used so that compromise of one
// token class does not enable forging the other. Secrets are injected
// here at construction time; nothing in this package reads the
// environment during signing or verification.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string

	// AccessTokenTTL is the lifetime of access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the lifetime of refresh tokens. Cookie expiry
	// and the store's expires_at are both derived from the same instant.
	RefreshTokenTTL time.Duration

	// AccessSecret signs and verifies access tokens.
	AccessSecret []byte

	// RefreshSecret signs and verifies refresh tokens.
	RefreshSecret []byte
}

// DefaultConfig returns the default TTLs. Secrets must still be provided.
func DefaultConfig() Config {
	return Config{
		Issuer:          "classhub",
		AccessTokenTTL:  1 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - CLASSHUB_ACCESS_TOKEN_SECRET
//   - CLASSHUB_REFRESH_TOKEN_SECRET (must differ from the access secret)
//
// Optional (durations must be valid Go duration strings):
//   - CLASSHUB_AUTH_ISSUER
//   - CLASSHUB_ACCESS_TOKEN_TTL
//   - CLASSHUB_REFRESH_TOKEN_TTL
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("CLASSHUB_AUTH_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("CLASSHUB_ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("CLASSHUB_REFRESH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	access := strings.TrimSpace(os.Getenv("CLASSHUB_ACCESS_TOKEN_SECRET"))
	refresh := strings.TrimSpace(os.Getenv("CLASSHUB_REFRESH_TOKEN_SECRET"))
	if access == "" || refresh == "" || access == refresh {
		return Config{}, ErrConfig
	}
	cfg.AccessSecret = []byte(access)
	cfg.RefreshSecret = []byte(refresh)

	return cfg, nil
}
