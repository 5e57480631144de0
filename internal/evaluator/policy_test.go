package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundmatch/lendmatch/internal/model"
)

func testDefs() map[string]model.ParameterDefinition {
	return map[string]model.ParameterDefinition{
		"credit_score":      {Name: "credit_score", Type: model.TypeNumber},
		"loan_amount":       {Name: "loan_amount", Type: model.TypeNumber},
		"years_in_business": {Name: "years_in_business", Type: model.TypeNumber},
		"has_bankruptcy":    {Name: "has_bankruptcy", Type: model.TypeBoolean},
	}
}

func eligibility(param string, op model.Operator, value any) model.Rule {
	return model.Rule{Parameter: param, Operator: op, Value: value, Kind: model.KindEligibility}
}

func scoring(param string, op model.Operator, value any, weight int) model.Rule {
	return model.Rule{Parameter: param, Operator: op, Value: value, Kind: model.KindScoring, Weight: weight}
}

func TestEvaluatePolicy_Approved(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		eligibility("credit_score", model.OpGreaterEqual, 650),
	}}

	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{"credit_score": 700})

	assert.Equal(t, model.OutcomeApproved, verdict.Outcome)
	require.NotNil(t, verdict.FitScore)
	assert.Equal(t, 100, *verdict.FitScore)
	require.Len(t, verdict.Evaluations, 1)
	assert.Equal(t, model.EvalPass, verdict.Evaluations[0].Status)
}

func TestEvaluatePolicy_DeclinedWithExplanation(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		eligibility("credit_score", model.OpGreaterEqual, 650),
	}}

	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{"credit_score": 600})

	assert.Equal(t, model.OutcomeDeclined, verdict.Outcome)
	assert.Nil(t, verdict.FitScore, "declined verdicts carry no fit score")
	require.Len(t, verdict.Evaluations, 1)
	assert.Contains(t, verdict.Evaluations[0].Explanation, "credit_score >= 650")
	assert.Contains(t, verdict.Evaluations[0].Explanation, "600")
}

func TestEvaluatePolicy_MissingEligibilityDataFailsClosed(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		eligibility("credit_score", model.OpGreaterEqual, 650),
	}}

	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{"loan_amount": 50000})

	assert.Equal(t, model.OutcomeDeclined, verdict.Outcome)
	require.Len(t, verdict.Evaluations, 1)
	assert.Equal(t, model.EvalIndeterminate, verdict.Evaluations[0].Status)
	assert.Equal(t, "no data provided for credit_score", verdict.Evaluations[0].Explanation)
}

func TestEvaluatePolicy_AllFailedEligibilityRulesReported(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		eligibility("credit_score", model.OpGreaterEqual, 650),
		eligibility("years_in_business", model.OpGreaterEqual, 2),
		eligibility("has_bankruptcy", model.OpEqual, false),
	}}

	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{
		"credit_score":      600,
		"years_in_business": 1,
		"has_bankruptcy":    false,
	})

	assert.Equal(t, model.OutcomeDeclined, verdict.Outcome)
	require.Len(t, verdict.Evaluations, 3, "evaluation does not stop at the first failure")

	failed := 0
	for _, ev := range verdict.Evaluations {
		if ev.Status == model.EvalFail {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestEvaluatePolicy_WeightedScore(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		eligibility("credit_score", model.OpGreaterEqual, 600),
		scoring("credit_score", model.OpGreaterEqual, 720, 30),
		scoring("loan_amount", model.OpLessEqual, 250000, 70),
	}}

	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{
		"credit_score": 680,
		"loan_amount":  100000,
	})

	assert.Equal(t, model.OutcomeApproved, verdict.Outcome)
	require.NotNil(t, verdict.FitScore)
	assert.Equal(t, 70, *verdict.FitScore, "only the passing 70-weight rule contributes")
}

func TestEvaluatePolicy_IndeterminateScoringExcludedFromDenominator(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		scoring("credit_score", model.OpGreaterEqual, 650, 50),
		scoring("years_in_business", model.OpGreaterEqual, 5, 50),
	}}

	// years_in_business is absent: its weight drops out entirely instead of
	// counting against the applicant.
	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{"credit_score": 700})

	assert.Equal(t, model.OutcomeApproved, verdict.Outcome)
	require.NotNil(t, verdict.FitScore)
	assert.Equal(t, 100, *verdict.FitScore)
}

func TestEvaluatePolicy_AllScoringIndeterminate(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		scoring("credit_score", model.OpGreaterEqual, 650, 40),
	}}

	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{})

	assert.Equal(t, model.OutcomeApproved, verdict.Outcome)
	require.NotNil(t, verdict.FitScore)
	assert.Equal(t, 100, *verdict.FitScore, "no determinate scoring rules means the default score")
}

func TestEvaluatePolicy_AllScoringFailed(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		scoring("credit_score", model.OpGreaterEqual, 750, 40),
		scoring("loan_amount", model.OpLessEqual, 10000, 60),
	}}

	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{
		"credit_score": 650,
		"loan_amount":  500000,
	})

	assert.Equal(t, model.OutcomeApproved, verdict.Outcome)
	require.NotNil(t, verdict.FitScore)
	assert.Equal(t, 0, *verdict.FitScore)
}

func TestEvaluatePolicy_EmptyPolicy(t *testing.T) {
	verdict := EvaluatePolicy(&model.Policy{}, testDefs(), map[string]any{"credit_score": 700})

	assert.Equal(t, model.OutcomeApproved, verdict.Outcome)
	require.NotNil(t, verdict.FitScore)
	assert.Equal(t, 100, *verdict.FitScore)
	assert.Empty(t, verdict.Evaluations)
}

func TestEvaluatePolicy_ScoreRounding(t *testing.T) {
	policy := &model.Policy{Rules: []model.Rule{
		scoring("credit_score", model.OpGreaterEqual, 650, 1),
		scoring("loan_amount", model.OpLessEqual, 250000, 2),
	}}

	// 1 of 3 weight passes: 33.33 rounds to 33
	verdict := EvaluatePolicy(policy, testDefs(), map[string]any{
		"credit_score": 700,
		"loan_amount":  300000,
	})

	require.NotNil(t, verdict.FitScore)
	assert.Equal(t, 33, *verdict.FitScore)
}
