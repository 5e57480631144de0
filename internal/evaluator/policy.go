package evaluator

import (
	"github.com/fundmatch/lendmatch/internal/model"
)

// Verdict is the outcome of evaluating one policy against one application.
type Verdict struct {
	FitScore    *int
	Outcome     model.Outcome
	Evaluations []model.RuleEvaluation
}

// EvaluatePolicy runs every rule of the policy against the application data
// and combines the outcomes: eligibility rules gate (an indeterminate
// eligibility rule fails closed), scoring rules contribute weight toward a
// 0-100 fit score among the rules that produced a determinate outcome.
//
// The full per-rule breakdown is retained, passed rules included, and a
// declined verdict carries every failed eligibility rule rather than
// stopping at the first. A policy with no rules is permissive by default:
// approved with score 100.
func EvaluatePolicy(policy *model.Policy, defs map[string]model.ParameterDefinition, data map[string]any) Verdict {
	verdict := Verdict{Outcome: model.OutcomeApproved}

	eligible := true
	passedWeight := 0
	determinateWeight := 0

	for _, rule := range policy.Rules {
		ev := Evaluate(rule, defs[rule.Parameter], data)
		verdict.Evaluations = append(verdict.Evaluations, ev)

		switch rule.Kind {
		case model.KindEligibility:
			if ev.Status != model.EvalPass {
				eligible = false
			}
		case model.KindScoring:
			if rule.Weight <= 0 {
				continue
			}
			switch ev.Status {
			case model.EvalPass:
				passedWeight += rule.Weight
				determinateWeight += rule.Weight
			case model.EvalFail:
				determinateWeight += rule.Weight
			case model.EvalIndeterminate:
				// Missing data contributes zero and is excluded from
				// the denominator
			}
		}
	}

	if !eligible {
		verdict.Outcome = model.OutcomeDeclined
		return verdict
	}

	score := 100
	if determinateWeight > 0 {
		score = clampScore(100 * float64(passedWeight) / float64(determinateWeight))
	}
	verdict.FitScore = &score
	return verdict
}
