package model

// CandidateRule is one rule proposed by the extraction collaborator before
// it has been reconciled against the parameter registry. The source excerpt
// is kept as provenance for auditability.
type CandidateRule struct {
	Value         any      `json:"value" yaml:"value"`
	Parameter     string   `json:"parameter" yaml:"parameter"`
	Label         string   `json:"label,omitempty" yaml:"label,omitempty"`
	Type          DataType `json:"type" yaml:"type"`
	Operator      Operator `json:"operator" yaml:"operator"`
	Kind          RuleKind `json:"kind" yaml:"kind"`
	FailureReason string   `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
	SourceExcerpt string   `json:"source_excerpt,omitempty" yaml:"source_excerpt,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
	Weight        int      `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// CandidateSet is a full candidate rule set for one lender policy, the
// structured shape the ingestion normalizer consumes.
type CandidateSet struct {
	PolicyName string          `json:"policy_name" yaml:"policy_name"`
	Candidates []CandidateRule `json:"rules" yaml:"rules"`
}
