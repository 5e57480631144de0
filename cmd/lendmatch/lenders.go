package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fundmatch/lendmatch/internal/model"
)

func lendersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lenders",
		Short: "Manage lenders",
	}

	cmd.AddCommand(lendersAddCmd())
	cmd.AddCommand(lendersListCmd())

	return cmd
}

func lendersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a lender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			lender := &model.Lender{
				ID:          uuid.NewString(),
				Name:        args[0],
				Description: description,
			}
			if err := store.CreateLender(ctx, lender); err != nil {
				return err
			}

			fmt.Printf("added lender %s (%s)\n", lender.Name, lender.ID)
			return nil
		},
	}

	cmd.Flags().String("description", "", "lender description")

	return cmd
}

func lendersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lenders and their active policy versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			lenders, err := store.ListLenders(ctx)
			if err != nil {
				return err
			}

			for _, lender := range lenders {
				line := fmt.Sprintf("%s  %s", lender.ID, lender.Name)
				if policy, err := store.GetActivePolicy(ctx, lender.ID); err == nil {
					line += fmt.Sprintf("  [%s v%d, %d rules]", policy.Name, policy.Version, len(policy.Rules))
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
