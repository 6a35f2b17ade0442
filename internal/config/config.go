// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// SessionConfig holds session and profile cache settings.
type SessionConfig struct {
	Secret        string
	TTL           time.Duration
	ProfileTTL    time.Duration
	Settle        time.Duration
	SweepInterval time.Duration
	SecureCookie  bool
	// ProfileStale is how long past ProfileTTL a cached profile is served
	// while the database fails.
	ProfileStale time.Duration
	// RetryBackoff spaces retries of a failed profile resolution.
	RetryBackoff time.Duration
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev               bool
	Migrations        bool
	LogLevel          string
	LogFormat         string // "text" or "json"
	SeedAdminEmail    string
	SeedAdminPassword string
}

// DSN returns the connection string for the configured driver. For postgres
// it is in key=value format; for sqlite it is the database file path.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Level maps LogLevel to a slog level. Unknown values mean info.
func (a AppConfig) Level() slog.Level {
	switch strings.ToLower(a.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	dev := getEnvBool("DEV", true)
	format := "json"
	if dev {
		format = "text"
	}
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "school"),
			Password:   getEnv("DB_PASSWORD", "school123"),
			DBName:     getEnv("DB_NAME", "school"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "school.db"),
		},
		Session: SessionConfig{
			Secret:        getEnv("SESSION_SECRET", ""),
			TTL:           getEnvDuration("SESSION_TTL", 14*24*time.Hour),
			ProfileTTL:    getEnvDuration("PROFILE_CACHE_TTL", 5*time.Minute),
			Settle:        getEnvDuration("PROFILE_SETTLE", 250*time.Millisecond),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Hour),
			SecureCookie:  getEnvBool("SESSION_SECURE_COOKIE", !dev),
			ProfileStale:  getEnvDuration("PROFILE_STALE_IF_ERROR", 10*time.Minute),
			RetryBackoff:  getEnvDuration("PROFILE_RETRY_BACKOFF", 2*time.Second),
		},
		App: AppConfig{
			Dev:               dev,
			Migrations:        getEnvBool("MIGRATIONS", false),
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			LogFormat:         getEnv("LOG_FORMAT", format),
			SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
			SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}
}

// Validate reports settings the server cannot run with. Outside dev mode a
// session secret is required.
func (c *Config) Validate() error {
	if !c.App.Dev && c.Session.Secret == "" {
		return errors.New("SESSION_SECRET must be set when DEV=false")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration parses values like "90s" or "12h". Invalid values yield the default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
