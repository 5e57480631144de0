package model

// Operator is a comparison operator applied between an application value and
// a rule's comparison value.
type Operator string

// Supported rule operators.
const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpIn           Operator = "in"
	OpContains     Operator = "contains"
)

// RuleKind distinguishes knockout rules from weighted scoring rules.
type RuleKind string

// Rule kinds.
const (
	KindEligibility RuleKind = "eligibility"
	KindScoring     RuleKind = "scoring"
)

// Valid reports whether the kind is one of the supported kinds.
func (k RuleKind) Valid() bool {
	return k == KindEligibility || k == KindScoring
}

// operatorTypes maps each operator to the parameter types it is defined for.
// Combinations outside this table are rejected at ingestion time so the
// evaluator never sees them.
var operatorTypes = map[Operator]map[DataType]bool{
	OpGreater:      {TypeNumber: true},
	OpLess:         {TypeNumber: true},
	OpGreaterEqual: {TypeNumber: true},
	OpLessEqual:    {TypeNumber: true},
	OpEqual:        {TypeNumber: true, TypeString: true, TypeBoolean: true, TypeEnum: true, TypeStringSet: true},
	OpNotEqual:     {TypeNumber: true, TypeString: true, TypeBoolean: true, TypeEnum: true, TypeStringSet: true},
	OpIn:           {TypeNumber: true, TypeString: true, TypeEnum: true},
	OpContains:     {TypeString: true, TypeStringSet: true},
}

// Valid reports whether the operator is one of the supported operators.
func (o Operator) Valid() bool {
	_, ok := operatorTypes[o]
	return ok
}

// ValidFor reports whether the operator is defined for the given data type.
func (o Operator) ValidFor(t DataType) bool {
	return operatorTypes[o][t]
}

// Rule is a single condition within a policy. The comparison value is typed
// per the referenced parameter's declared type and stored as JSON.
type Rule struct {
	Value         any      `json:"value"`
	ID            string   `json:"id"`
	PolicyID      string   `json:"policy_id"`
	Parameter     string   `json:"parameter"`
	Operator      Operator `json:"operator"`
	Kind          RuleKind `json:"kind"`
	FailureReason string   `json:"failure_reason,omitempty"`
	Provenance    string   `json:"provenance,omitempty"`
	Weight        int      `json:"weight"`
	Position      int      `json:"position"`
}
