package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("CLASSHUB_HTTP_ADDR", "0.0.0.0:5500"),
		LogLevel: EnvString("CLASSHUB_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("CLASSHUB_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("CLASSHUB_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("CLASSHUB_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("CLASSHUB_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("CLASSHUB_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("CLASSHUB_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("CLASSHUB_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("CLASSHUB_DB_MIN_CONNS", 0),

		CORSAllowedOrigins:   EnvStrings("CLASSHUB_CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowCredentials: EnvString("CLASSHUB_CORS_ALLOW_CREDENTIALS", "true") == "true",
	}
}
