package model

import "time"

// EvalStatus is the outcome of evaluating a single rule.
type EvalStatus string

// Rule evaluation statuses. Indeterminate means the application provided no
// usable value for the rule's parameter; it fails closed for eligibility
// rules and contributes zero weight for scoring rules.
const (
	EvalPass          EvalStatus = "pass"
	EvalFail          EvalStatus = "fail"
	EvalIndeterminate EvalStatus = "indeterminate"
)

// Outcome is the per-lender verdict for an application.
type Outcome string

// Match outcomes.
const (
	OutcomeApproved Outcome = "approved"
	OutcomeDeclined Outcome = "declined"
)

// RuleEvaluation records how one rule fared against the application,
// including the explanation shown to the end user. Every rule produces a
// record, pass or fail, for transparency.
type RuleEvaluation struct {
	Actual      any        `json:"actual,omitempty"`
	Threshold   any        `json:"threshold"`
	RuleID      string     `json:"rule_id"`
	Parameter   string     `json:"parameter"`
	Label       string     `json:"label"`
	Operator    Operator   `json:"operator"`
	Kind        RuleKind   `json:"kind"`
	Status      EvalStatus `json:"status"`
	Explanation string     `json:"explanation"`
	Weight      int        `json:"weight"`
}

// BatchMember pins one lender's policy into a match batch. The membership
// is recorded when the batch starts; re-dispatched batches evaluate exactly
// this set, so policies activated later never join an in-flight batch.
type BatchMember struct {
	LenderID string `json:"lender_id"`
	PolicyID string `json:"policy_id"`
}

// MatchResult is the verdict for one (application, lender) pair, evaluated
// against the lender's active policy version at submission time.
type MatchResult struct {
	CreatedAt     time.Time        `json:"created_at"`
	FitScore      *int             `json:"fit_score,omitempty"`
	ID            string           `json:"id"`
	ApplicationID string           `json:"application_id"`
	LenderID      string           `json:"lender_id"`
	LenderName    string           `json:"lender_name,omitempty"`
	PolicyID      string           `json:"policy_id"`
	PolicyName    string           `json:"policy_name,omitempty"`
	Outcome       Outcome          `json:"outcome"`
	Evaluations   []RuleEvaluation `json:"evaluations"`
	PolicyVersion int              `json:"policy_version"`
}

// FailedEligibility returns every eligibility rule evaluation that did not
// pass. Declined verdicts must surface all of them, not just the first.
func (m *MatchResult) FailedEligibility() []RuleEvaluation {
	var out []RuleEvaluation
	for _, ev := range m.Evaluations {
		if ev.Kind == KindEligibility && ev.Status != EvalPass {
			out = append(out, ev)
		}
	}
	return out
}
