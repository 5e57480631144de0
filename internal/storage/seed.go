package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fundmatch/lendmatch/internal/model"
)

// seedParameters is the baseline field catalog installed by Seed. Lender
// documents routinely reference these, so having them pre-registered keeps
// early ingestions from minting near-duplicate names.
var seedParameters = []model.ParameterDefinition{
	{
		Name:        "fico_score",
		Label:       "FICO Credit Score",
		Type:        model.TypeNumber,
		Category:    "credit",
		Description: "Personal credit score (300-850)",
	},
	{
		Name:        "annual_revenue",
		Label:       "Annual Revenue",
		Type:        model.TypeNumber,
		Category:    "financials",
		Description: "Business annual revenue in dollars",
	},
	{
		Name:        "years_in_business",
		Label:       "Years in Business",
		Type:        model.TypeNumber,
		Category:    "business",
		Description: "How many years the business has been operating",
	},
	{
		Name:          "business_type",
		Label:         "Business Type",
		Type:          model.TypeEnum,
		Category:      "business",
		Description:   "Type of business",
		AllowedValues: []string{"Trucking", "Construction", "Manufacturing", "Retail", "Services", "Other"},
	},
	{
		Name:        "loan_amount",
		Label:       "Loan Amount Requested",
		Type:        model.TypeNumber,
		Category:    "loan",
		Description: "Amount of funding requested",
	},
	{
		Name:        "has_bankruptcy",
		Label:       "Bankruptcy in Last 7 Years",
		Type:        model.TypeBoolean,
		Category:    "credit",
		Description: "Has the business or owner filed for bankruptcy in the last 7 years?",
	},
	{
		Name:        "state",
		Label:       "State of Operation",
		Type:        model.TypeString,
		Category:    "business",
		Description: "Primary state where the business operates",
	},
	{
		Name:        "collateral_types",
		Label:       "Available Collateral",
		Type:        model.TypeStringSet,
		Category:    "loan",
		Description: "Kinds of collateral the applicant can pledge",
	},
}

// Seed installs the baseline parameter catalog. Idempotent: existing
// definitions are left untouched.
func (s *SQLiteStorage) Seed(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	created := 0
	for i := range seedParameters {
		def := seedParameters[i]
		_, wasCreated, err := s.CreateParameterIfAbsent(ctx, &def)
		if err != nil {
			return fmt.Errorf("failed to seed parameter %q: %w", def.Name, err)
		}
		if wasCreated {
			created++
		}
	}

	slog.Info("seeded parameter catalog", "created", created, "total", len(seedParameters))
	return nil
}
