// Package ingest reconciles extracted candidate rule sets against the
// parameter registry and commits them as new policy versions.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
	"github.com/fundmatch/lendmatch/internal/registry"
	"github.com/fundmatch/lendmatch/internal/service"
)

// IngestionError reports why a candidate rule set was rejected. The whole
// set is rejected together; the lender's prior active policy stays in force.
// Typed causes such as registry conflicts stay reachable through errors.Is
// and errors.As alongside the rendered problem list.
type IngestionError struct {
	Problems []string
	Causes   []error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("candidate rule set rejected: %s", strings.Join(e.Problems, "; "))
}

func (e *IngestionError) Unwrap() []error {
	return append([]error{common.ErrIngestion}, e.Causes...)
}

// Normalizer turns candidate rule sets into committed policy versions.
type Normalizer struct {
	store    service.Storage
	registry *registry.Registry
}

// New creates a normalizer.
func New(store service.Storage, reg *registry.Registry) *Normalizer {
	return &Normalizer{store: store, registry: reg}
}

// Ingest resolves every candidate's parameter against the registry (creating
// definitions for fields the system has not seen before), validates operator
// and weight compatibility, and commits the result as the lender's new
// active policy version in one atomic transition.
//
// Parameter definitions created here are durable even if a later candidate
// fails validation: other in-flight ingestions may already reference them,
// so they are deliberately never rolled back. This is a known, intentional
// non-atomicity between parameter creation and policy commit.
func (n *Normalizer) Ingest(ctx context.Context, lenderID string, set *model.CandidateSet) (*model.Policy, error) {
	if set == nil || len(set.Candidates) == 0 {
		return nil, &IngestionError{Problems: []string{"candidate set is empty"}}
	}

	policyName := set.PolicyName
	if policyName == "" {
		policyName = "Underwriting Policy"
	}

	var problems []string
	var causes []error
	rules := make([]model.Rule, 0, len(set.Candidates))

	for i, candidate := range set.Candidates {
		def, err := n.resolveParameter(ctx, candidate)
		if err != nil {
			problems = append(problems, fmt.Sprintf("candidate %d (%s): %v", i, candidate.Parameter, err))
			causes = append(causes, err)
			continue
		}

		if !candidate.Operator.Valid() {
			problems = append(problems, fmt.Sprintf("candidate %d (%s): unsupported operator %q",
				i, candidate.Parameter, candidate.Operator))
			continue
		}
		if !candidate.Operator.ValidFor(def.Type) {
			problems = append(problems, fmt.Sprintf("candidate %d (%s): operator %q is not defined for type %q",
				i, candidate.Parameter, candidate.Operator, def.Type))
			continue
		}
		if !candidate.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("candidate %d (%s): unsupported rule kind %q",
				i, candidate.Parameter, candidate.Kind))
			continue
		}
		if candidate.Kind == model.KindScoring && candidate.Weight <= 0 {
			problems = append(problems, fmt.Sprintf("candidate %d (%s): scoring rule requires positive weight, got %d",
				i, candidate.Parameter, candidate.Weight))
			continue
		}

		rules = append(rules, model.Rule{
			Parameter:     def.Name,
			Operator:      candidate.Operator,
			Value:         candidate.Value,
			Kind:          candidate.Kind,
			Weight:        candidate.Weight,
			FailureReason: candidate.FailureReason,
			Provenance:    candidate.SourceExcerpt,
		})
	}

	if len(problems) > 0 {
		return nil, &IngestionError{Problems: problems, Causes: causes}
	}

	policy, err := n.store.CommitPolicy(ctx, lenderID, policyName, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to commit policy: %w", err)
	}

	slog.Info("ingested policy version",
		"lender_id", lenderID,
		"policy", policy.Name,
		"version", policy.Version,
		"rules", len(policy.Rules))
	return policy, nil
}

// resolveParameter finds or creates the registry definition a candidate
// references. Candidates without a declared type for an unknown parameter
// cannot be resolved.
func (n *Normalizer) resolveParameter(ctx context.Context, candidate model.CandidateRule) (*model.ParameterDefinition, error) {
	if strings.TrimSpace(candidate.Parameter) == "" {
		return nil, fmt.Errorf("missing parameter name")
	}

	def, err := n.registry.Lookup(ctx, candidate.Parameter)
	if err == nil {
		if candidate.Type != "" && candidate.Type != def.Type {
			return nil, &registry.ConflictError{
				Name:      candidate.Parameter,
				Existing:  def.Type,
				Requested: candidate.Type,
			}
		}
		return def, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if candidate.Type == "" {
		return nil, fmt.Errorf("parameter has no declared type and is not registered")
	}

	return n.registry.Define(ctx, &model.ParameterDefinition{
		Name:          candidate.Parameter,
		Label:         candidate.Label,
		Type:          candidate.Type,
		AllowedValues: candidate.AllowedValues,
	})
}
