package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/internal/config"
	"github.com/diewo77/go-school/internal/db"
	"github.com/diewo77/go-school/internal/policy"
	"github.com/diewo77/go-school/view"
	"github.com/joho/godotenv"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	dbConn, err := db.Open(cfg.Database, cfg.App.Dev)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	seed := db.SeedOptions{AdminEmail: cfg.App.SeedAdminEmail, AdminPassword: cfg.App.SeedAdminPassword}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			fatal("migration failed", err)
		}
		logger.Info("migrations completed")
		return
	}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn, seed); err != nil {
			fatal("seeding failed", err)
		}
		logger.Info("seeding completed")
		return
	}

	if cfg.App.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			fatal("migration failed", err)
		}
		logger.Info("migrations completed")
	}
	if err := db.Seed(dbConn, seed); err != nil {
		fatal("seeding failed", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}
	if cfg.Session.Secret == "" {
		logger.Warn("SESSION_SECRET is not set; using the development secret")
	}

	view.SetDev(cfg.App.Dev)
	routerCfg := policy.NewRouterConfig(dbConn, cfg.Session, logger)
	appHandler := NewApp(dbConn, routerCfg, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, routerCfg.Sessions, cfg.Session.SweepInterval, logger)

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "err", err)
	}
	logger.Info("server stopped gracefully")
}

func newLogger(app config.AppConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: app.Level()}
	if app.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// sweepSessions deletes expired sessions every interval until ctx ends.
func sweepSessions(ctx context.Context, p *auth.Provider, every time.Duration, logger *slog.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.Sweep(ctx); err != nil {
				logger.Warn("session sweep failed", "err", err)
			}
		}
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
