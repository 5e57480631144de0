// Package extract defines the boundary to the external document
// understanding collaborator. The core never calls out to a model or PDF
// parser itself; it only consumes the structured candidate rule sets the
// collaborator produces.
package extract

import (
	"context"

	"github.com/fundmatch/lendmatch/internal/model"
)

// Extractor defines the contract for turning an unstructured policy
// document into a structured candidate rule set, given the parameters the
// system already knows so the collaborator can reuse existing field names.
type Extractor interface {
	ExtractRules(ctx context.Context, document []byte, known []model.ParameterDefinition) (*model.CandidateSet, error)
}
