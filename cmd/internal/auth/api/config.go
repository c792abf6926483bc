package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

const envLocal = "local"

// Config controls auth API transport behavior.
type Config struct {
	// Env is the deployment environment ("local", "dev", "prod").
	// Cookies are Secure everywhere except local development.
	Env string

	MaxBodyBytes int64

	AccessCookieName  string
	RefreshCookieName string
	CookiePath        string
	CookieDomain      string
	CookieSameSite    http.SameSite
}

// CookieSecure reports whether cookies must carry the Secure attribute.
func (c Config) CookieSecure() bool { return c.Env != envLocal }

// LoadConfigFromEnv loads auth API config from environment variables
// with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		Env:          envString("CLASSHUB_ENV", envLocal),
		MaxBodyBytes: envInt64("CLASSHUB_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB

		AccessCookieName:  "accessToken",
		RefreshCookieName: "refreshToken",
		CookiePath:        "/",
		CookieDomain:      envString("CLASSHUB_COOKIE_DOMAIN", ""),
		CookieSameSite:    http.SameSiteLaxMode,
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
