package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auth-service/internal/config"
	"auth-service/internal/database"
	"auth-service/internal/handler"
	"auth-service/internal/keys"
	"auth-service/internal/metrics"
	"auth-service/internal/middleware"
	"auth-service/internal/repository"
	"auth-service/internal/router"
	"auth-service/internal/service"
)

type App struct {
	server   *http.Server
	db       *database.DB
	sessions *repository.SessionRepository
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	keyProvider := keys.NewFileProvider(cfg.PrivateKeyFile, cfg.KeyID, cfg.RefreshTokenSecret)
	if cfg.JWKSURI != "" {
		keyProvider = keyProvider.WithJWKS(keys.NewJWKSResolver(cfg.JWKSURI))
	}

	// Signing without key material is a configuration error; surface it now
	// rather than on the first login.
	if _, err := keyProvider.PrivateKey(); err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tenantRepo := repository.NewTenantRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	slog.Info("database ready")

	collector := metrics.NewCollector()
	credentialService := service.NewCredentialService()
	tokenService := service.NewTokenService(keyProvider, sessionRepo)
	userService := service.NewUserService(userRepo, credentialService)
	tenantService := service.NewTenantService(tenantRepo)

	authMiddleware := middleware.NewAuthMiddleware(keyProvider, sessionRepo)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:    handler.NewAuthHandler(userService, credentialService, tokenService, collector, cfg.CookieDomain),
		Tenant:  handler.NewTenantHandler(tenantService),
		User:    handler.NewUserHandler(userService),
		Metrics: collector.Handler(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{server: server, db: db, sessions: sessionRepo}, nil
}

func (a *App) Run() error {
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go a.cleanupExpiredSessions(janitorCtx)

	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.db.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.db.Close()
	slog.Info("server stopped")
	return nil
}

// cleanupExpiredSessions prunes expired refresh sessions periodically. The
// verifier never accepts an expired session, so this only keeps the table from
// growing without bound.
func (a *App) cleanupExpiredSessions(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleteCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			removed, err := a.sessions.DeleteExpired(deleteCtx)
			cancel()
			if err != nil {
				slog.Error("expired session cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired sessions removed", "count", removed)
			}
		}
	}
}
