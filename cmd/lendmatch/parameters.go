package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fundmatch/lendmatch/internal/cli"
	"github.com/fundmatch/lendmatch/internal/model"
	"github.com/fundmatch/lendmatch/internal/registry"
)

func parametersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parameters",
		Short: "Inspect and extend the parameter registry",
	}

	cmd.AddCommand(parametersListCmd())
	cmd.AddCommand(parametersRegisterCmd())

	return cmd
}

func parametersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered parameters in creation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			defs, err := registry.New(store).ListAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to list parameters: %w", err)
			}

			cli.RenderParameterTable(os.Stdout, defs)
			return nil
		},
	}
}

func parametersRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a parameter definition",
		Long: `Register a parameter definition. Registering an existing name with the
same type is a no-op; registering it with a different type is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataType, _ := cmd.Flags().GetString("type")
			label, _ := cmd.Flags().GetString("label")
			category, _ := cmd.Flags().GetString("category")
			description, _ := cmd.Flags().GetString("description")
			values, _ := cmd.Flags().GetStringSlice("values")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			def, err := registry.New(store).Define(ctx, &model.ParameterDefinition{
				Name:          args[0],
				Label:         label,
				Type:          model.DataType(dataType),
				Category:      category,
				Description:   description,
				AllowedValues: values,
			})
			if err != nil {
				return err
			}

			fmt.Printf("registered %s (%s)\n", def.Name, def.Type)
			return nil
		},
	}

	cmd.Flags().String("type", "", "data type (number, string, boolean, enum, set-of-string)")
	cmd.Flags().String("label", "", "display label for form rendering")
	cmd.Flags().String("category", "", "category label for UI grouping")
	cmd.Flags().String("description", "", "human-readable description")
	cmd.Flags().StringSlice("values", nil, "allowed values (required for enum parameters)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}
