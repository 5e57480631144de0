package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

With --seed, also installs the baseline parameter catalog so lender
documents referencing common fields (fico_score, annual_revenue, ...)
resolve against consistent names.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("seed", false, "Install the baseline parameter catalog after migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	seed, _ := cmd.Flags().GetBool("seed")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	slog.Info("Database migrations completed")

	if seed {
		if err := store.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed parameters: %w", err)
		}
	}

	return nil
}
