package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/diewo77/go-school/internal/db"
	"github.com/spf13/cobra"
)

var loadFixturesCmd = &cobra.Command{
	Use:     "load-fixtures <file.yaml>",
	Short:   "Load demo accounts, classes, students and notices from a YAML file",
	GroupID: "db",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		f, err := db.ParseFixtures(file)
		if err != nil {
			return err
		}
		counts, err := db.LoadFixtures(cmd.Context(), conn, f)
		if err != nil {
			return fmt.Errorf("loading fixtures: %w", err)
		}
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %d\n", k, counts[k])
		}
		return nil
	},
}
