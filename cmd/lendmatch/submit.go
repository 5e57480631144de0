package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fundmatch/lendmatch/internal/cli"
	"github.com/fundmatch/lendmatch/internal/match"
	"github.com/fundmatch/lendmatch/internal/metrics"
	"github.com/fundmatch/lendmatch/internal/model"
	"github.com/fundmatch/lendmatch/internal/registry"
)

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a loan application and match it against all lenders",
		Long: `Submit a loan application. Form data is validated against the parameter
registry (unknown fields and type mismatches are rejected), then the
application is matched concurrently against every lender's active policy.`,
		RunE: runSubmit,
	}

	cmd.Flags().String("applicant", "", "applicant name")
	cmd.Flags().String("data", "", "YAML file with form data (parameter name -> value)")
	cmd.Flags().StringArray("set", nil, "set a form field, e.g. --set fico_score=680")
	cmd.Flags().Int("workers", 0, "max concurrent lender evaluations")
	_ = cmd.MarkFlagRequired("applicant")

	return cmd
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	applicant, _ := cmd.Flags().GetString("applicant")
	dataFile, _ := cmd.Flags().GetString("data")
	sets, _ := cmd.Flags().GetStringArray("set")
	workers, _ := cmd.Flags().GetInt("workers")

	data, err := collectFormData(dataFile, sets)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	config := match.DefaultConfig()
	if workers > 0 {
		config.MaxWorkers = workers
	}
	orchestrator := match.NewWithConfig(store, registry.New(store), metrics.NewCollector(), config)

	app, err := orchestrator.Submit(ctx, applicant, data)
	if err != nil {
		return err
	}
	fmt.Printf("submitted application %s\n", app.ID)

	policies, err := store.ListActivePolicies(ctx)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(policies),
		progressbar.OptionSetDescription("matching lenders"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	orchestrator.OnResult = func(model.MatchResult) {
		_ = bar.Add(1)
	}

	if err := orchestrator.MatchApplication(ctx, app.ID); err != nil {
		return err
	}
	_ = bar.Finish()

	app, err = store.GetApplication(ctx, app.ID)
	if err != nil {
		return err
	}
	results, err := store.GetMatchResults(ctx, app.ID)
	if err != nil {
		return err
	}

	cli.RenderMatchResults(os.Stdout, app, results)
	return nil
}

// collectFormData merges a YAML data file with --set overrides. Set values
// are parsed as numbers or booleans where possible, strings otherwise, and
// comma-separated values become a string set.
func collectFormData(dataFile string, sets []string) (map[string]any, error) {
	data := make(map[string]any)

	if dataFile != "" {
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse data file: %w", err)
		}
	}

	for _, set := range sets {
		key, value, found := strings.Cut(set, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", set)
		}
		data[key] = parseFieldValue(value)
	}

	return data, nil
}

func parseFieldValue(raw string) any {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		set := make([]any, 0, len(parts))
		for _, p := range parts {
			set = append(set, strings.TrimSpace(p))
		}
		return set
	}
	return raw
}
