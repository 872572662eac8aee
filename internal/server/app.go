// Package server wires configuration, storage and HTTP handlers into a running server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/vidtube/internal/crypto"
	"github.com/iudanet/vidtube/internal/server/account"
	"github.com/iudanet/vidtube/internal/server/config"
	"github.com/iudanet/vidtube/internal/server/handlers"
	"github.com/iudanet/vidtube/internal/server/jwt"
	"github.com/iudanet/vidtube/internal/server/metrics"
	"github.com/iudanet/vidtube/internal/server/middleware"
	"github.com/iudanet/vidtube/internal/server/session"
	"github.com/iudanet/vidtube/internal/server/storage"
	"github.com/iudanet/vidtube/internal/server/storage/memory"
	"github.com/iudanet/vidtube/internal/server/storage/postgres"
	"github.com/iudanet/vidtube/internal/server/storage/sqlite"
)

// Store is an identity store that holds resources.
type Store interface {
	storage.UserStorage
	Close() error
}

// OpenStore opens the store selected by cfg.DBDriver and applies migrations.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

// App is the HTTP server with all its dependencies.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   Store
	limiter *middleware.RateLimiter
	handler http.Handler
}

// NewApp builds the services and the router on top of store.
// The App owns store from here on and closes it in Close.
func NewApp(cfg *config.Config, logger *slog.Logger, store Store, version string) (*App, error) {
	tokens, err := jwt.NewService(jwt.Config{
		AccessSecret:    []byte(cfg.AccessTokenSecret),
		RefreshSecret:   []byte(cfg.RefreshTokenSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	m := metrics.New()
	hasher := crypto.NewPasswordHasher(cfg.BcryptCost)
	sessions := session.New(logger, store, hasher, tokens, m)
	accounts := account.New(logger, store, hasher)

	auth := middleware.NewAuthenticator(logger, tokens, store, m)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow, logger,
		middleware.WithTrustedProxyHeaders(cfg.TrustProxyHeaders))

	users := handlers.NewAuthHandler(logger, sessions, accounts, handlers.CookieConfig{Secure: cfg.CookieSecure})
	health := handlers.NewHealthHandler(logger, store, version)

	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/users/register", limiter.Middleware(http.HandlerFunc(users.Register)))
	mux.Handle("POST /api/v1/users/login", limiter.Middleware(http.HandlerFunc(users.Login)))
	mux.Handle("POST /api/v1/users/refresh-token", limiter.Middleware(http.HandlerFunc(users.RefreshToken)))

	mux.Handle("POST /api/v1/users/logout", auth.RequireAuth(http.HandlerFunc(users.Logout)))
	mux.Handle("GET /api/v1/users/me", auth.RequireAuth(http.HandlerFunc(users.Me)))
	mux.Handle("POST /api/v1/users/change-password", auth.RequireAuth(http.HandlerFunc(users.ChangePassword)))
	mux.Handle("PATCH /api/v1/users/{id}", auth.RequireAuth(http.HandlerFunc(users.UpdateAccount)))

	mux.Handle("GET /api/v1/users/c/{username}", auth.OptionalAuth(http.HandlerFunc(users.Channel)))

	mux.HandleFunc("GET /api/v1/health", health.Health)
	mux.Handle("GET /metrics", m.Handler())

	var handler http.Handler = mux
	handler = middleware.Logging(logger, "/api/v1/health", "/metrics")(handler)
	handler = middleware.Recovery(logger)(handler)

	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		limiter: limiter,
		handler: handler,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
	}

	errC := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", slog.String("addr", ln.Addr().String()))
		errC <- srv.Serve(ln)
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errC; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops background work and closes the store.
func (a *App) Close() error {
	a.limiter.Stop()
	return a.store.Close()
}
