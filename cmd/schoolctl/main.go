// Command schoolctl runs maintenance tasks against the school portal database.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/diewo77/go-school/internal/config"
	"github.com/diewo77/go-school/internal/db"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg  *config.Config
	conn *gorm.DB
)

var rootCmd = &cobra.Command{
	Use:           "schoolctl <command>",
	Short:         "Maintenance commands for the school portal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()
		c, err := db.Open(cfg.Database, cfg.App.Dev)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		conn = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if conn == nil {
			return
		}
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "db", Title: "Database:"},
		&cobra.Group{ID: "accounts", Title: "Accounts:"},
	)
	rootCmd.AddCommand(migrateCmd, seedCmd, loadFixturesCmd, sweepSessionsCmd, createUserCmd, approveCmd)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
