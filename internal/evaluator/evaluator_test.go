package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fundmatch/lendmatch/internal/model"
)

func numberDef(name string) model.ParameterDefinition {
	return model.ParameterDefinition{Name: name, Type: model.TypeNumber}
}

func TestEvaluate_NumericOrdering(t *testing.T) {
	tests := []struct {
		value      any
		threshold  any
		name       string
		op         model.Operator
		wantStatus model.EvalStatus
	}{
		{name: "gte pass", op: model.OpGreaterEqual, value: 700, threshold: 650, wantStatus: model.EvalPass},
		{name: "gte fail", op: model.OpGreaterEqual, value: 600, threshold: 650, wantStatus: model.EvalFail},
		{name: "gte boundary", op: model.OpGreaterEqual, value: 650, threshold: 650, wantStatus: model.EvalPass},
		{name: "gt boundary", op: model.OpGreater, value: 650, threshold: 650, wantStatus: model.EvalFail},
		{name: "lt pass", op: model.OpLess, value: 100000.0, threshold: 250000.0, wantStatus: model.EvalPass},
		{name: "lte fail", op: model.OpLessEqual, value: 300000.0, threshold: 250000.0, wantStatus: model.EvalFail},
		{name: "numeric string value", op: model.OpGreater, value: "700", threshold: 650, wantStatus: model.EvalPass},
		{name: "uncoercible value", op: model.OpGreater, value: "seven hundred", threshold: 650, wantStatus: model.EvalIndeterminate},
		{name: "uncoercible threshold", op: model.OpGreater, value: 700, threshold: "high", wantStatus: model.EvalIndeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := model.Rule{Parameter: "credit_score", Operator: tt.op, Value: tt.threshold, Kind: model.KindEligibility}
			data := map[string]any{"credit_score": tt.value}

			ev := Evaluate(rule, numberDef("credit_score"), data)

			assert.Equal(t, tt.wantStatus, ev.Status)
			assert.NotEmpty(t, ev.Explanation, "every evaluation carries an explanation")
		})
	}
}

func TestEvaluate_MissingData(t *testing.T) {
	rule := model.Rule{Parameter: "credit_score", Operator: model.OpGreaterEqual, Value: 650, Kind: model.KindEligibility}

	ev := Evaluate(rule, numberDef("credit_score"), map[string]any{"loan_amount": 50000})

	assert.Equal(t, model.EvalIndeterminate, ev.Status)
	assert.Equal(t, "no data provided for credit_score", ev.Explanation)
}

func TestEvaluate_NilValueIsMissing(t *testing.T) {
	rule := model.Rule{Parameter: "credit_score", Operator: model.OpGreaterEqual, Value: 650, Kind: model.KindEligibility}

	ev := Evaluate(rule, numberDef("credit_score"), map[string]any{"credit_score": nil})

	assert.Equal(t, model.EvalIndeterminate, ev.Status)
}

func TestEvaluate_Equality(t *testing.T) {
	boolDef := model.ParameterDefinition{Name: "has_bankruptcy", Type: model.TypeBoolean}
	setDef := model.ParameterDefinition{Name: "collateral_types", Type: model.TypeStringSet}

	t.Run("boolean equal", func(t *testing.T) {
		rule := model.Rule{Parameter: "has_bankruptcy", Operator: model.OpEqual, Value: false}
		ev := Evaluate(rule, boolDef, map[string]any{"has_bankruptcy": false})
		assert.Equal(t, model.EvalPass, ev.Status)
	})

	t.Run("boolean not equal fails", func(t *testing.T) {
		rule := model.Rule{Parameter: "has_bankruptcy", Operator: model.OpNotEqual, Value: false}
		ev := Evaluate(rule, boolDef, map[string]any{"has_bankruptcy": false})
		assert.Equal(t, model.EvalFail, ev.Status)
	})

	t.Run("set equality ignores order and duplicates", func(t *testing.T) {
		rule := model.Rule{Parameter: "collateral_types", Operator: model.OpEqual, Value: []any{"truck", "equipment"}}
		ev := Evaluate(rule, setDef, map[string]any{"collateral_types": []any{"equipment", "truck", "equipment"}})
		assert.Equal(t, model.EvalPass, ev.Status)
	})

	t.Run("set inequality", func(t *testing.T) {
		rule := model.Rule{Parameter: "collateral_types", Operator: model.OpEqual, Value: []any{"truck"}}
		ev := Evaluate(rule, setDef, map[string]any{"collateral_types": []any{"equipment"}})
		assert.Equal(t, model.EvalFail, ev.Status)
	})
}

func TestEvaluate_In(t *testing.T) {
	enumDef := model.ParameterDefinition{
		Name: "business_type", Type: model.TypeEnum,
		AllowedValues: []string{"Trucking", "Construction", "Retail"},
	}

	t.Run("member passes", func(t *testing.T) {
		rule := model.Rule{Parameter: "business_type", Operator: model.OpIn, Value: []any{"Trucking", "Construction"}}
		ev := Evaluate(rule, enumDef, map[string]any{"business_type": "Trucking"})
		assert.Equal(t, model.EvalPass, ev.Status)
	})

	t.Run("non-member fails", func(t *testing.T) {
		rule := model.Rule{Parameter: "business_type", Operator: model.OpIn, Value: []any{"Trucking", "Construction"}}
		ev := Evaluate(rule, enumDef, map[string]any{"business_type": "Retail"})
		assert.Equal(t, model.EvalFail, ev.Status)
	})

	t.Run("numeric membership", func(t *testing.T) {
		rule := model.Rule{Parameter: "term_months", Operator: model.OpIn, Value: []any{12, 24, 36}}
		ev := Evaluate(rule, numberDef("term_months"), map[string]any{"term_months": 24.0})
		assert.Equal(t, model.EvalPass, ev.Status)
	})

	t.Run("scalar threshold is indeterminate", func(t *testing.T) {
		rule := model.Rule{Parameter: "business_type", Operator: model.OpIn, Value: "Trucking"}
		ev := Evaluate(rule, enumDef, map[string]any{"business_type": "Trucking"})
		assert.Equal(t, model.EvalIndeterminate, ev.Status)
	})
}

func TestEvaluate_Contains(t *testing.T) {
	strDef := model.ParameterDefinition{Name: "state", Type: model.TypeString}
	setDef := model.ParameterDefinition{Name: "collateral_types", Type: model.TypeStringSet}

	t.Run("substring is case-insensitive", func(t *testing.T) {
		rule := model.Rule{Parameter: "state", Operator: model.OpContains, Value: "york"}
		ev := Evaluate(rule, strDef, map[string]any{"state": "New York"})
		assert.Equal(t, model.EvalPass, ev.Status)
	})

	t.Run("substring absent", func(t *testing.T) {
		rule := model.Rule{Parameter: "state", Operator: model.OpContains, Value: "texas"}
		ev := Evaluate(rule, strDef, map[string]any{"state": "New York"})
		assert.Equal(t, model.EvalFail, ev.Status)
	})

	t.Run("set membership", func(t *testing.T) {
		rule := model.Rule{Parameter: "collateral_types", Operator: model.OpContains, Value: "truck"}
		ev := Evaluate(rule, setDef, map[string]any{"collateral_types": []any{"truck", "equipment"}})
		assert.Equal(t, model.EvalPass, ev.Status)
	})
}

func TestEvaluate_OperatorTypeMismatchAbsorbed(t *testing.T) {
	// Ingestion rejects these combinations, but evaluate must stay total
	// if one slips through via historical data.
	strDef := model.ParameterDefinition{Name: "state", Type: model.TypeString}
	rule := model.Rule{Parameter: "state", Operator: model.OpGreater, Value: 5}

	ev := Evaluate(rule, strDef, map[string]any{"state": "NY"})

	assert.Equal(t, model.EvalIndeterminate, ev.Status)
	assert.Contains(t, ev.Explanation, "not defined for type")
}

func TestEvaluate_ExplanationContent(t *testing.T) {
	rule := model.Rule{Parameter: "credit_score", Operator: model.OpGreaterEqual, Value: 650, Kind: model.KindEligibility}

	t.Run("failure cites parameter, operator, threshold and actual", func(t *testing.T) {
		ev := Evaluate(rule, numberDef("credit_score"), map[string]any{"credit_score": 600})
		assert.Contains(t, ev.Explanation, "credit_score >= 650")
		assert.Contains(t, ev.Explanation, "600")
	})

	t.Run("pass still explained", func(t *testing.T) {
		ev := Evaluate(rule, numberDef("credit_score"), map[string]any{"credit_score": 700})
		assert.Contains(t, ev.Explanation, "credit_score >= 650")
		assert.Contains(t, ev.Explanation, "700")
	})

	t.Run("failure reason override appended", func(t *testing.T) {
		withReason := rule
		withReason.FailureReason = "minimum FICO for this program is 650"
		ev := Evaluate(withReason, numberDef("credit_score"), map[string]any{"credit_score": 600})
		assert.Contains(t, ev.Explanation, "minimum FICO for this program is 650")
	})
}

func TestEvaluate_UnknownDefinition(t *testing.T) {
	rule := model.Rule{Parameter: "mystery", Operator: model.OpEqual, Value: 1}

	// Zero-value definition, as when a parameter is missing from the catalog
	ev := Evaluate(rule, model.ParameterDefinition{}, map[string]any{"mystery": 1})

	assert.Equal(t, model.EvalIndeterminate, ev.Status)
}
