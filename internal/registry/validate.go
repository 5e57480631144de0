package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
)

// ValidationError reports why submitted application data was rejected.
// Every offending field is listed so the submitter can fix the input in one
// round trip.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("application data invalid: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidation
}

// ValidateApplicationData checks submitted form data against the registry:
// unknown keys are rejected rather than silently stored, values must coerce
// to the declared type, and enum values must be among the allowed values.
func (r *Registry) ValidateApplicationData(ctx context.Context, data map[string]any) error {
	if len(data) == 0 {
		return &ValidationError{Problems: []string{"no form data provided"}}
	}

	defs, err := r.Definitions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load parameter catalog: %w", err)
	}

	var problems []string

	// Stable field order for stable error messages
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def, ok := defs[key]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown parameter %q", key))
			continue
		}

		value, err := model.CoerceValue(def.Type, data[key])
		if err != nil {
			problems = append(problems, fmt.Sprintf("parameter %q: %v", key, err))
			continue
		}

		if def.Type == model.TypeEnum {
			if !contains(def.AllowedValues, value.(string)) {
				problems = append(problems, fmt.Sprintf("parameter %q: value %q not among allowed values %v",
					key, value, def.AllowedValues))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
