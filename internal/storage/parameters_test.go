package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
)

func TestCreateParameterIfAbsent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	def := &model.ParameterDefinition{
		Name:        "credit_score",
		Label:       "Credit Score",
		Type:        model.TypeNumber,
		Category:    "credit",
		Description: "Personal credit score",
	}

	stored, created, err := store.CreateParameterIfAbsent(ctx, def)
	if err != nil {
		t.Fatalf("Failed to create parameter: %v", err)
	}
	if !created {
		t.Error("Expected created=true on first insert")
	}
	if stored.ID == 0 {
		t.Error("Expected stored parameter to have an ID")
	}
	if stored.CreatedAt.IsZero() {
		t.Error("Expected stored parameter to have a creation time")
	}

	// Second insert with a different label must return the original
	again, created, err := store.CreateParameterIfAbsent(ctx, &model.ParameterDefinition{
		Name:  "credit_score",
		Label: "FICO",
		Type:  model.TypeNumber,
	})
	if err != nil {
		t.Fatalf("Failed on second insert: %v", err)
	}
	if created {
		t.Error("Expected created=false on second insert")
	}
	if again.Label != "Credit Score" {
		t.Errorf("Expected original label to win, got %q", again.Label)
	}
}

func TestCreateParameterIfAbsent_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()

	tests := []struct {
		def  *model.ParameterDefinition
		name string
	}{
		{name: "nil definition", def: nil},
		{name: "empty name", def: &model.ParameterDefinition{Type: model.TypeNumber}},
		{name: "unknown type", def: &model.ParameterDefinition{Name: "x", Type: "decimal"}},
		{name: "enum without values", def: &model.ParameterDefinition{Name: "x", Type: model.TypeEnum}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := store.CreateParameterIfAbsent(ctx, tt.def); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestGetParameter_EnumRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	allowed := []string{"Trucking", "Construction", "Retail"}
	_, _, err := store.CreateParameterIfAbsent(ctx, &model.ParameterDefinition{
		Name:          "business_type",
		Type:          model.TypeEnum,
		AllowedValues: allowed,
	})
	if err != nil {
		t.Fatalf("Failed to create enum parameter: %v", err)
	}

	def, err := store.GetParameter(ctx, "business_type")
	if err != nil {
		t.Fatalf("Failed to get parameter: %v", err)
	}
	if !reflect.DeepEqual(def.AllowedValues, allowed) {
		t.Errorf("Expected allowed values %v, got %v", allowed, def.AllowedValues)
	}
}

func TestGetParameter_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetParameter(context.Background(), "nonexistent")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListParameters_CreationOrder(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	names := []string{"zebra", "apple", "mango"}
	for _, name := range names {
		_, _, err := store.CreateParameterIfAbsent(ctx, &model.ParameterDefinition{
			Name: name,
			Type: model.TypeString,
		})
		if err != nil {
			t.Fatalf("Failed to create parameter %q: %v", name, err)
		}
	}

	defs, err := store.ListParameters(ctx)
	if err != nil {
		t.Fatalf("Failed to list parameters: %v", err)
	}
	if len(defs) != len(names) {
		t.Fatalf("Expected %d parameters, got %d", len(names), len(defs))
	}
	for i, name := range names {
		if defs[i].Name != name {
			t.Errorf("Expected parameter %d to be %q, got %q", i, name, defs[i].Name)
		}
	}
}
