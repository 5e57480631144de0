// Package evaluator implements rule and policy evaluation. Everything here
// is pure: no I/O, no side effects, total over arbitrary input. Anomalies
// like missing or uncoercible data become indeterminate outcomes with an
// explanation, never errors.
package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/fundmatch/lendmatch/internal/model"
)

// Evaluate applies one rule to the application data under the parameter's
// declared type. The returned record always carries a human-readable
// explanation, pass or fail, because it is persisted and shown to the
// applicant.
func Evaluate(rule model.Rule, def model.ParameterDefinition, data map[string]any) model.RuleEvaluation {
	ev := model.RuleEvaluation{
		RuleID:    rule.ID,
		Parameter: rule.Parameter,
		Label:     def.DisplayLabel(),
		Operator:  rule.Operator,
		Kind:      rule.Kind,
		Weight:    rule.Weight,
		Threshold: rule.Value,
	}

	raw, present := data[rule.Parameter]
	if !present || raw == nil {
		ev.Status = model.EvalIndeterminate
		ev.Explanation = fmt.Sprintf("no data provided for %s", rule.Parameter)
		return ev
	}
	ev.Actual = raw

	if !def.Type.Valid() {
		ev.Status = model.EvalIndeterminate
		ev.Explanation = fmt.Sprintf("parameter %s has no usable type definition", rule.Parameter)
		return ev
	}

	passed, err := apply(rule.Operator, def.Type, raw, rule.Value)
	if err != nil {
		ev.Status = model.EvalIndeterminate
		ev.Explanation = fmt.Sprintf("cannot evaluate %s: %v", rule.Parameter, err)
		return ev
	}

	if passed {
		ev.Status = model.EvalPass
		ev.Explanation = fmt.Sprintf("%s %s %v satisfied (actual %v)",
			rule.Parameter, rule.Operator, rule.Value, raw)
	} else {
		ev.Status = model.EvalFail
		ev.Explanation = fmt.Sprintf("%s %s %v not satisfied (actual %v)",
			rule.Parameter, rule.Operator, rule.Value, raw)
		if rule.FailureReason != "" {
			ev.Explanation += ": " + rule.FailureReason
		}
	}
	return ev
}

// apply dispatches the comparison by (operator, declared type). Combinations
// outside the operator table are rejected at ingestion time; hitting one
// here is reported as an evaluation error and absorbed as indeterminate.
func apply(op model.Operator, t model.DataType, actual, threshold any) (bool, error) {
	if !op.ValidFor(t) {
		return false, fmt.Errorf("operator %q is not defined for type %q", op, t)
	}

	switch op {
	case model.OpGreater, model.OpLess, model.OpGreaterEqual, model.OpLessEqual:
		return applyOrdering(op, actual, threshold)
	case model.OpEqual, model.OpNotEqual:
		return applyEquality(op, t, actual, threshold)
	case model.OpIn:
		return applyIn(t, actual, threshold)
	case model.OpContains:
		return applyContains(t, actual, threshold)
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

func applyOrdering(op model.Operator, actual, threshold any) (bool, error) {
	a, err := model.CoerceNumber(actual)
	if err != nil {
		return false, fmt.Errorf("application value %v", err)
	}
	b, err := model.CoerceNumber(threshold)
	if err != nil {
		return false, fmt.Errorf("comparison value %v", err)
	}

	switch op {
	case model.OpGreater:
		return a > b, nil
	case model.OpLess:
		return a < b, nil
	case model.OpGreaterEqual:
		return a >= b, nil
	default:
		return a <= b, nil
	}
}

func applyEquality(op model.Operator, t model.DataType, actual, threshold any) (bool, error) {
	equal, err := valuesEqual(t, actual, threshold)
	if err != nil {
		return false, err
	}
	if op == model.OpNotEqual {
		return !equal, nil
	}
	return equal, nil
}

func valuesEqual(t model.DataType, actual, threshold any) (bool, error) {
	a, err := model.CoerceValue(t, actual)
	if err != nil {
		return false, fmt.Errorf("application value %v", err)
	}
	b, err := model.CoerceValue(t, threshold)
	if err != nil {
		return false, fmt.Errorf("comparison value %v", err)
	}

	if t == model.TypeStringSet {
		return stringSetsEqual(a.([]string), b.([]string)), nil
	}
	return a == b, nil
}

// applyIn tests membership of the application value in the rule's value set.
// Each member of the set is coerced to the parameter's type.
func applyIn(t model.DataType, actual, threshold any) (bool, error) {
	members, ok := threshold.([]any)
	if !ok {
		return false, fmt.Errorf("comparison value %v (%T) is not a value set", threshold, threshold)
	}

	a, err := model.CoerceValue(t, actual)
	if err != nil {
		return false, fmt.Errorf("application value %v", err)
	}

	for _, member := range members {
		m, err := model.CoerceValue(t, member)
		if err != nil {
			return false, fmt.Errorf("value set member %v", err)
		}
		if a == m {
			return true, nil
		}
	}
	return false, nil
}

// applyContains is a case-insensitive substring test for strings and a
// membership test for string sets.
func applyContains(t model.DataType, actual, threshold any) (bool, error) {
	needle, err := model.CoerceString(threshold)
	if err != nil {
		return false, fmt.Errorf("comparison value %v", err)
	}

	if t == model.TypeStringSet {
		set, err := model.CoerceStringSet(actual)
		if err != nil {
			return false, fmt.Errorf("application value %v", err)
		}
		for _, member := range set {
			if member == needle {
				return true, nil
			}
		}
		return false, nil
	}

	haystack, err := model.CoerceString(actual)
	if err != nil {
		return false, fmt.Errorf("application value %v", err)
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)), nil
}

func stringSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	// Both sides are normalized and sorted by CoerceStringSet
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// clampScore keeps a computed fit score inside [0, 100].
func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
