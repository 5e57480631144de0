package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/fundmatch/lendmatch/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// Helper function to create a lender and return its ID.
func createTestLender(t *testing.T, store *SQLiteStorage, name string) string {
	t.Helper()
	lender := &model.Lender{
		ID:   uuid.NewString(),
		Name: name,
	}
	if err := store.CreateLender(context.Background(), lender); err != nil {
		t.Fatalf("Failed to create lender %q: %v", name, err)
	}
	return lender.ID
}

// Helper function to register the parameters that test policies reference.
// Rules carry a foreign key on the parameter name, so the catalog entries
// must exist before a policy commit.
func registerTestParameters(t *testing.T, store *SQLiteStorage) {
	t.Helper()
	ctx := context.Background()
	defs := []model.ParameterDefinition{
		{Name: "credit_score", Type: model.TypeNumber},
		{Name: "loan_amount", Type: model.TypeNumber},
		{Name: "business_type", Type: model.TypeEnum, AllowedValues: []string{"Trucking", "Construction", "Retail"}},
	}
	for i := range defs {
		if _, _, err := store.CreateParameterIfAbsent(ctx, &defs[i]); err != nil {
			t.Fatalf("Failed to register parameter %q: %v", defs[i].Name, err)
		}
	}
}

func numberRule(param string, op model.Operator, value any) model.Rule {
	return model.Rule{
		Parameter: param,
		Operator:  op,
		Value:     value,
		Kind:      model.KindEligibility,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()

	// Running migrations again must be a no-op
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}

	var version int
	err := store.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_versions`).Scan(&version)
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", ExpectedSchemaVersion, version)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()

	if err := store.Seed(ctx); err != nil {
		t.Fatalf("First seed failed: %v", err)
	}
	defs, err := store.ListParameters(ctx)
	if err != nil {
		t.Fatalf("Failed to list parameters: %v", err)
	}
	seeded := len(defs)
	if seeded == 0 {
		t.Fatal("Seed created no parameters")
	}

	if err := store.Seed(ctx); err != nil {
		t.Fatalf("Second seed failed: %v", err)
	}
	defs, err = store.ListParameters(ctx)
	if err != nil {
		t.Fatalf("Failed to list parameters: %v", err)
	}
	if len(defs) != seeded {
		t.Errorf("Expected %d parameters after reseed, got %d", seeded, len(defs))
	}
}
