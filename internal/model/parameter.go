// Package model defines the core domain models used throughout the application.
package model

import "time"

// DataType is the declared type of a parameter. It governs how application
// values and rule comparison values are coerced and which operators apply.
type DataType string

// Supported parameter data types.
const (
	TypeNumber    DataType = "number"
	TypeString    DataType = "string"
	TypeBoolean   DataType = "boolean"
	TypeEnum      DataType = "enum"
	TypeStringSet DataType = "set-of-string"
)

// Valid reports whether the data type is one of the supported types.
func (d DataType) Valid() bool {
	switch d {
	case TypeNumber, TypeString, TypeBoolean, TypeEnum, TypeStringSet:
		return true
	}
	return false
}

// ParameterDefinition is a single entry in the parameter registry. The name
// is the global identity; the type is immutable once created because rules
// and stored application data reference it.
type ParameterDefinition struct {
	CreatedAt     time.Time `json:"created_at"`
	Name          string    `json:"name"`
	Label         string    `json:"label"`
	Type          DataType  `json:"type"`
	Category      string    `json:"category,omitempty"`
	Description   string    `json:"description,omitempty"`
	AllowedValues []string  `json:"allowed_values,omitempty"`
	ID            int64     `json:"id"`
}

// DisplayLabel returns the label, falling back to the raw name.
func (p *ParameterDefinition) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}
