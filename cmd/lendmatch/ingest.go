package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fundmatch/lendmatch/internal/extract"
	"github.com/fundmatch/lendmatch/internal/ingest"
	"github.com/fundmatch/lendmatch/internal/registry"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <lender-name> <bundle.yaml>",
		Short: "Ingest a candidate rule bundle as a new policy version",
		Long: `Ingest a structured candidate rule bundle for a lender. New parameters
referenced by the bundle are registered automatically; the bundle is
rejected as a whole if any rule's operator is incompatible with its
parameter's type or a scoring rule has non-positive weight. On success
the lender's previous active policy version is atomically replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			lender, err := store.GetLenderByName(ctx, args[0])
			if err != nil {
				return err
			}

			set, err := extract.NewFileSource().LoadBundle(ctx, args[1])
			if err != nil {
				return err
			}

			normalizer := ingest.New(store, registry.New(store))
			policy, err := normalizer.Ingest(ctx, lender.ID, set)
			if err != nil {
				return err
			}

			fmt.Printf("committed %s v%d for %s (%d rules)\n",
				policy.Name, policy.Version, lender.Name, len(policy.Rules))
			return nil
		},
	}
}
