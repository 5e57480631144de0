package model

import "time"

// Lender represents a lending institution whose underwriting policies are
// matched against applications.
type Lender struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}
