package main

import (
	"fmt"
	"time"

	"github.com/diewo77/go-school/internal/db"
	"github.com/diewo77/go-school/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Create or update the database schema",
	GroupID: "db",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.Migrate(conn); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "Create the bootstrap super admin from SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD",
	GroupID: "db",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := db.SeedOptions{AdminEmail: cfg.App.SeedAdminEmail, AdminPassword: cfg.App.SeedAdminPassword}
		if opts.AdminEmail == "" || opts.AdminPassword == "" {
			return fmt.Errorf("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
		}
		if err := db.Seed(conn, opts); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Super admin %s is ready\n", opts.AdminEmail)
		return nil
	},
}

var sweepSessionsCmd = &cobra.Command{
	Use:     "sweep-sessions",
	Short:   "Delete expired sessions",
	GroupID: "db",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := store.NewSessions(conn).DeleteExpired(cmd.Context(), time.Now())
		if err != nil {
			return fmt.Errorf("sweeping sessions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired session(s)\n", n)
		return nil
	},
}
