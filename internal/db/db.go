// Package db opens the database and prepares its schema and seed data.
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/go-school/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// Open connects to the configured database. Postgres connections are retried
// a few times to let the server start.
func Open(cfg config.DatabaseConfig, dev bool) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true}
	if dev {
		gcfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	switch cfg.Driver {
	case "sqlite":
		slog.Info("opening database", "driver", "sqlite", "path", cfg.SQLitePath)
		conn, err := gorm.Open(sqlite.Open(cfg.DSN()), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return conn, nil
	case "postgres", "":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	slog.Info("connecting to database", "driver", "postgres", "host", cfg.Host, "port", cfg.Port, "dbname", cfg.DBName, "user", cfg.User)
	var err error
	for i := 1; i <= connectAttempts; i++ {
		var conn *gorm.DB
		conn, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
		if err == nil {
			return conn, nil
		}
		slog.Warn("database connection failed", "attempt", i, "of", connectAttempts, "err", err)
		if i < connectAttempts {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("connect postgres: %w", err)
}
