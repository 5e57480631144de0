// Package registry maintains the catalog of typed parameters that
// application data and policy rules may reference. The catalog grows at
// runtime without schema migrations; the registry is the source of truth
// for what a field means.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
	"github.com/fundmatch/lendmatch/internal/service"
)

// ConflictError reports an attempt to redefine a parameter with a different
// type. Types are immutable once created; changing one would invalidate
// existing rules and stored application data.
type ConflictError struct {
	Name      string
	Existing  model.DataType
	Requested model.DataType
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("parameter %q already defined with type %q, cannot redefine as %q",
		e.Name, e.Existing, e.Requested)
}

func (e *ConflictError) Unwrap() error {
	return common.ErrConflict
}

// Registry resolves and defines parameters against durable storage.
type Registry struct {
	store service.Storage
}

// New creates a registry backed by the given storage.
func New(store service.Storage) *Registry {
	return &Registry{store: store}
}

// Define registers a parameter, or returns the existing definition when one
// with the same name and type already exists. Safe under concurrent calls
// with the same name: the storage insert is atomic create-if-absent, and the
// loser of a race observes the winner's definition. A type mismatch against
// the stored definition is a ConflictError regardless of who won.
func (r *Registry) Define(ctx context.Context, def *model.ParameterDefinition) (*model.ParameterDefinition, error) {
	if def == nil {
		return nil, fmt.Errorf("definition cannot be nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("parameter name cannot be empty")
	}
	if !def.Type.Valid() {
		return nil, fmt.Errorf("unsupported data type %q for parameter %q", def.Type, def.Name)
	}
	if def.Type == model.TypeEnum && len(def.AllowedValues) == 0 {
		return nil, fmt.Errorf("enum parameter %q requires allowed values", def.Name)
	}

	stored, created, err := r.store.CreateParameterIfAbsent(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("failed to define parameter %q: %w", def.Name, err)
	}

	if !created && stored.Type != def.Type {
		return nil, &ConflictError{Name: def.Name, Existing: stored.Type, Requested: def.Type}
	}

	if created {
		slog.Info("registered parameter", "name", stored.Name, "type", stored.Type)
	}
	return stored, nil
}

// Lookup returns the definition for a parameter name.
func (r *Registry) Lookup(ctx context.Context, name string) (*model.ParameterDefinition, error) {
	return r.store.GetParameter(ctx, name)
}

// ListAll returns every definition in creation order.
func (r *Registry) ListAll(ctx context.Context) ([]model.ParameterDefinition, error) {
	return r.store.ListParameters(ctx)
}

// Definitions returns the full catalog keyed by parameter name, the shape
// the evaluation pipeline consumes.
func (r *Registry) Definitions(ctx context.Context) (map[string]model.ParameterDefinition, error) {
	defs, err := r.store.ListParameters(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]model.ParameterDefinition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	return byName, nil
}
