package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fundmatch/lendmatch/internal/cli"
	"github.com/fundmatch/lendmatch/internal/model"
)

func resultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results <application-id>",
		Short: "Show match results for an application",
		Long: `Show the per-lender match results for an application, sorted by fit
score. Safe to run repeatedly while a batch is still processing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			app, err := store.GetApplication(ctx, args[0])
			if err != nil {
				return err
			}

			results, err := store.GetMatchResults(ctx, app.ID)
			if err != nil {
				return err
			}

			cli.RenderMatchResults(os.Stdout, app, results)

			if app.Status == model.StatusProcessing {
				if expected, completed, err := store.BatchProgress(ctx, app.ID); err == nil {
					fmt.Printf("%d of %d lenders evaluated\n", completed, expected)
				}
			}
			return nil
		},
	}
}
