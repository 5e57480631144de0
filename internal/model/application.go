package model

import "time"

// ApplicationStatus tracks the lifecycle of a submitted application's match
// batch.
type ApplicationStatus string

// Application batch statuses.
const (
	StatusProcessing ApplicationStatus = "processing"
	StatusComplete   ApplicationStatus = "complete"
	StatusFailed     ApplicationStatus = "failed"
)

// LoanApplication is a submitted application: a flat mapping from parameter
// name to a typed value. Every key must name a registered parameter; the
// data is immutable after submission.
type LoanApplication struct {
	CreatedAt     time.Time         `json:"created_at"`
	Data          map[string]any    `json:"data"`
	ID            string            `json:"id"`
	ApplicantName string            `json:"applicant_name"`
	Status        ApplicationStatus `json:"status"`
}
