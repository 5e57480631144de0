// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/fundmatch/lendmatch/internal/model"
)

// Storage defines the contract for our persistence layer. All entities are
// durable; nothing the matching pipeline depends on lives only in memory.
type Storage interface {
	// Parameter registry operations. CreateParameterIfAbsent is the atomic
	// create-if-absent primitive the registry builds on: it returns the
	// stored definition and whether this call created it.
	CreateParameterIfAbsent(ctx context.Context, def *model.ParameterDefinition) (*model.ParameterDefinition, bool, error)
	GetParameter(ctx context.Context, name string) (*model.ParameterDefinition, error)
	ListParameters(ctx context.Context) ([]model.ParameterDefinition, error)

	// Lender operations.
	CreateLender(ctx context.Context, lender *model.Lender) error
	GetLender(ctx context.Context, id string) (*model.Lender, error)
	GetLenderByName(ctx context.Context, name string) (*model.Lender, error)
	ListLenders(ctx context.Context) ([]model.Lender, error)

	// Policy operations. CommitPolicy writes the new version's rules,
	// deactivates the prior active version and activates the new one in a
	// single transaction.
	CommitPolicy(ctx context.Context, lenderID, name string, rules []model.Rule) (*model.Policy, error)
	GetPolicy(ctx context.Context, id string) (*model.Policy, error)
	GetActivePolicy(ctx context.Context, lenderID string) (*model.Policy, error)
	ListActivePolicies(ctx context.Context) ([]model.Policy, error)

	// Application operations.
	SaveApplication(ctx context.Context, app *model.LoanApplication) error
	GetApplication(ctx context.Context, id string) (*model.LoanApplication, error)
	ListApplications(ctx context.Context) ([]model.LoanApplication, error)
	SetApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus) error

	// Match batch operations. StartMatchBatch records the (lender, policy)
	// snapshot the batch evaluates; BatchMembers reads it back so a
	// re-dispatched batch works from the recorded set, not the current
	// active policies. SaveMatchResult persists one lender's verdict,
	// increments the durable completion counter and reports whether the
	// batch just completed. Both writes are idempotent under retries.
	StartMatchBatch(ctx context.Context, applicationID string, members []model.BatchMember) error
	BatchMembers(ctx context.Context, applicationID string) ([]model.BatchMember, error)
	SaveMatchResult(ctx context.Context, result *model.MatchResult) (bool, error)
	GetMatchResults(ctx context.Context, applicationID string) ([]model.MatchResult, error)

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}
