// Package app wires the classhub server runtime: config, logging, the
// database pool, metrics, and HTTP routes.
//
// It is intentionally small and deterministic to keep behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"classhub/cmd/identity"
	authapi "classhub/cmd/internal/auth/api"
	"classhub/cmd/internal/auth/session"
	"classhub/cmd/internal/classes"
)

// App is the classhub server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool  *pgxpool.Pool
	metrics *Metrics

	auth *authapi.Handler
	cls  *classes.Handler
}

// New constructs a fully wired App instance from config and logger.
// The database is required: all session state lives there.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("app: CLASSHUB_DATABASE_URL is required")
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		pool.Close()
		return nil, err
	}
	codec, err := session.NewJWTCodec(sessCfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	tokens := session.NewPostgresStore(pool)

	sessions, err := session.NewService(sessCfg, users, tokens, codec)
	if err != nil {
		pool.Close()
		return nil, err
	}

	auth, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), sessions)
	if err != nil {
		pool.Close()
		return nil, err
	}

	classStore, err := classes.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	cls, err := classes.NewHandler(log, classStore, auth)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		log:     log,
		dbPool:  pool,
		metrics: NewMetrics(),
		auth:    auth,
		cls:     cls,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.dbPool, a.metrics, a.auth, a.cls)

	var handler http.Handler = mux
	handler = a.metrics.WithMetrics(handler, mux)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.dbPool.Close()

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
