package model

import "time"

// Policy is a versioned set of underwriting rules owned by one lender.
// Committed policies are append-only: a new ingestion creates a new version
// and deactivates the previous one in a single transition, so a decision
// rendered against version N stays reproducible.
type Policy struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	LenderID  string    `json:"lender_id"`
	Name      string    `json:"name"`
	Rules     []Rule    `json:"rules"`
	Version   int       `json:"version"`
	Active    bool      `json:"active"`
}
