// Package storage provides the data persistence layer for lendmatch.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
)

// Validation errors. All wrap common.ErrValidation so callers can classify
// them as structural and never worth retrying.
var (
	ErrNilContext       = fmt.Errorf("%w: context cannot be nil", common.ErrValidation)
	ErrEmptyString      = fmt.Errorf("%w: string parameter cannot be empty", common.ErrValidation)
	ErrNilParameter     = fmt.Errorf("%w: parameter cannot be nil", common.ErrValidation)
	ErrInvalidParameter = fmt.Errorf("%w: invalid parameter definition", common.ErrValidation)
	ErrInvalidLender    = fmt.Errorf("%w: invalid lender", common.ErrValidation)
	ErrInvalidRule      = fmt.Errorf("%w: invalid rule", common.ErrValidation)
	ErrInvalidResult    = fmt.Errorf("%w: invalid match result", common.ErrValidation)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateParameterDefinition validates a parameter definition before storage.
func validateParameterDefinition(def *model.ParameterDefinition) error {
	if def == nil {
		return fmt.Errorf("%w: definition", ErrNilParameter)
	}
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidParameter)
	}
	if !def.Type.Valid() {
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidParameter, def.Type)
	}
	if def.Type == model.TypeEnum && len(def.AllowedValues) == 0 {
		return fmt.Errorf("%w: enum parameter %q requires allowed values", ErrInvalidParameter, def.Name)
	}
	return nil
}

// validateLender validates a lender before storage.
func validateLender(lender *model.Lender) error {
	if lender == nil {
		return fmt.Errorf("%w: lender", ErrNilParameter)
	}
	if lender.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidLender)
	}
	if strings.TrimSpace(lender.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidLender)
	}
	return nil
}

// validateRules validates a rule set before a policy commit.
func validateRules(rules []model.Rule) error {
	for i, rule := range rules {
		if rule.Parameter == "" {
			return fmt.Errorf("%w: rule at index %d missing parameter", ErrInvalidRule, i)
		}
		if !rule.Operator.Valid() {
			return fmt.Errorf("%w: rule at index %d has unsupported operator %q", ErrInvalidRule, i, rule.Operator)
		}
		if !rule.Kind.Valid() {
			return fmt.Errorf("%w: rule at index %d has unsupported kind %q", ErrInvalidRule, i, rule.Kind)
		}
	}
	return nil
}

// validateMatchResult validates a match result before storage.
func validateMatchResult(result *model.MatchResult) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if result.ApplicationID == "" {
		return fmt.Errorf("%w: missing application ID", ErrInvalidResult)
	}
	if result.LenderID == "" {
		return fmt.Errorf("%w: missing lender ID", ErrInvalidResult)
	}
	if result.Outcome != model.OutcomeApproved && result.Outcome != model.OutcomeDeclined {
		return fmt.Errorf("%w: unsupported outcome %q", ErrInvalidResult, result.Outcome)
	}
	return nil
}
