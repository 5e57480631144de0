package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
)

func TestCommitPolicy_VersionsAreMonotonic(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	registerTestParameters(t, store)
	lenderID := createTestLender(t, store, "Apex Capital")

	for want := 1; want <= 3; want++ {
		policy, err := store.CommitPolicy(ctx, lenderID, "standard", []model.Rule{
			numberRule("credit_score", model.OpGreaterEqual, 600+10*want),
		})
		if err != nil {
			t.Fatalf("Failed to commit policy version %d: %v", want, err)
		}
		if policy.Version != want {
			t.Errorf("Expected version %d, got %d", want, policy.Version)
		}
		if !policy.Active {
			t.Error("Expected committed policy to be active")
		}
	}
}

func TestCommitPolicy_SingleActiveVersion(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	registerTestParameters(t, store)
	lenderID := createTestLender(t, store, "Apex Capital")

	for i := 0; i < 3; i++ {
		if _, err := store.CommitPolicy(ctx, lenderID, "standard", []model.Rule{
			numberRule("credit_score", model.OpGreaterEqual, 650),
		}); err != nil {
			t.Fatalf("Failed to commit policy: %v", err)
		}
	}

	var active int
	err := store.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM policies
		WHERE lender_id = ? AND active = 1`, lenderID).Scan(&active)
	if err != nil {
		t.Fatalf("Failed to count active policies: %v", err)
	}
	if active != 1 {
		t.Errorf("Expected exactly 1 active policy, got %d", active)
	}

	policy, err := store.GetActivePolicy(ctx, lenderID)
	if err != nil {
		t.Fatalf("Failed to get active policy: %v", err)
	}
	if policy.Version != 3 {
		t.Errorf("Expected active version 3, got %d", policy.Version)
	}
}

func TestCommitPolicy_UnknownLender(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.CommitPolicy(context.Background(), "no-such-lender", "standard", []model.Rule{
		numberRule("credit_score", model.OpGreaterEqual, 650),
	})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCommitPolicy_RulesRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	registerTestParameters(t, store)
	lenderID := createTestLender(t, store, "Apex Capital")

	rules := []model.Rule{
		{
			Parameter:     "credit_score",
			Operator:      model.OpGreaterEqual,
			Value:         650,
			Kind:          model.KindEligibility,
			FailureReason: "minimum score is 650",
			Provenance:    "guidelines.pdf page 2",
		},
		{
			Parameter: "loan_amount",
			Operator:  model.OpLessEqual,
			Value:     250000,
			Kind:      model.KindScoring,
			Weight:    40,
		},
		{
			Parameter: "business_type",
			Operator:  model.OpIn,
			Value:     []any{"Trucking", "Construction"},
			Kind:      model.KindEligibility,
		},
	}

	committed, err := store.CommitPolicy(ctx, lenderID, "standard", rules)
	if err != nil {
		t.Fatalf("Failed to commit policy: %v", err)
	}

	loaded, err := store.GetPolicy(ctx, committed.ID)
	if err != nil {
		t.Fatalf("Failed to load policy: %v", err)
	}
	if len(loaded.Rules) != len(rules) {
		t.Fatalf("Expected %d rules, got %d", len(rules), len(loaded.Rules))
	}

	for i, rule := range loaded.Rules {
		if rule.Position != i {
			t.Errorf("Rule %d: expected position %d, got %d", i, i, rule.Position)
		}
		if rule.Parameter != rules[i].Parameter {
			t.Errorf("Rule %d: expected parameter %q, got %q", i, rules[i].Parameter, rule.Parameter)
		}
		if rule.Kind != rules[i].Kind {
			t.Errorf("Rule %d: expected kind %q, got %q", i, rules[i].Kind, rule.Kind)
		}
	}
	if loaded.Rules[0].FailureReason != "minimum score is 650" {
		t.Errorf("Expected failure reason to survive, got %q", loaded.Rules[0].FailureReason)
	}
	if loaded.Rules[1].Weight != 40 {
		t.Errorf("Expected weight 40, got %d", loaded.Rules[1].Weight)
	}
	members, ok := loaded.Rules[2].Value.([]any)
	if !ok || len(members) != 2 {
		t.Errorf("Expected set value to round-trip, got %v", loaded.Rules[2].Value)
	}
}

func TestGetActivePolicy_NoneCommitted(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	lenderID := createTestLender(t, store, "Apex Capital")

	_, err := store.GetActivePolicy(context.Background(), lenderID)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListActivePolicies(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	registerTestParameters(t, store)
	apexID := createTestLender(t, store, "Apex Capital")
	summitID := createTestLender(t, store, "Summit Lending")
	createTestLender(t, store, "No Policy Yet")

	for _, lenderID := range []string{apexID, summitID} {
		// Two versions each; only the latest should be listed
		for i := 0; i < 2; i++ {
			if _, err := store.CommitPolicy(ctx, lenderID, "standard", []model.Rule{
				numberRule("credit_score", model.OpGreaterEqual, 650),
			}); err != nil {
				t.Fatalf("Failed to commit policy: %v", err)
			}
		}
	}

	policies, err := store.ListActivePolicies(ctx)
	if err != nil {
		t.Fatalf("Failed to list active policies: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("Expected 2 active policies, got %d", len(policies))
	}
	for _, policy := range policies {
		if policy.Version != 2 {
			t.Errorf("Lender %s: expected active version 2, got %d", policy.LenderID, policy.Version)
		}
		if len(policy.Rules) != 1 {
			t.Errorf("Lender %s: expected rules to be loaded, got %d", policy.LenderID, len(policy.Rules))
		}
	}
}
