package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
)

// CommitPolicy writes a new policy version for the lender in a single
// transaction: allocate the next version number, deactivate the previous
// active version, insert the new policy as active, and insert its rules.
// A concurrent reader never observes zero or two active versions.
func (s *SQLiteStorage) CommitPolicy(ctx context.Context, lenderID, name string, rules []model.Rule) (*model.Policy, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(lenderID, "lenderID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	policy := &model.Policy{
		ID:       uuid.NewString(),
		LenderID: lenderID,
		Name:     name,
		Active:   true,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM lenders WHERE id = ?`, lenderID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check lender: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("lender %q: %w", lenderID, common.ErrNotFound)
		}

		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(version), 0) + 1
			FROM policies WHERE lender_id = ?`, lenderID).Scan(&policy.Version); err != nil {
			return fmt.Errorf("failed to allocate policy version: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE policies SET active = 0
			WHERE lender_id = ? AND active = 1`, lenderID); err != nil {
			return fmt.Errorf("failed to deactivate prior policy: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO policies (id, lender_id, name, version, active)
			VALUES (?, ?, ?, ?, 1)`,
			policy.ID, lenderID, name, policy.Version); err != nil {
			return fmt.Errorf("failed to insert policy: %w", err)
		}

		for i, rule := range rules {
			rule.ID = uuid.NewString()
			rule.PolicyID = policy.ID
			rule.Position = i

			value, err := json.Marshal(rule.Value)
			if err != nil {
				return fmt.Errorf("failed to encode rule value for %q: %w", rule.Parameter, err)
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO policy_rules (id, policy_id, parameter_name, operator, value, kind, weight, failure_reason, provenance, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rule.ID, rule.PolicyID, rule.Parameter, string(rule.Operator), string(value),
				string(rule.Kind), rule.Weight, rule.FailureReason, rule.Provenance, rule.Position,
			); err != nil {
				return fmt.Errorf("failed to insert rule for %q: %w", rule.Parameter, err)
			}

			policy.Rules = append(policy.Rules, rule)
		}

		return tx.QueryRowContext(ctx,
			`SELECT created_at FROM policies WHERE id = ?`, policy.ID).Scan(&policy.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("committed policy version",
		"lender_id", lenderID,
		"policy", name,
		"version", policy.Version,
		"rules", len(policy.Rules))
	return policy, nil
}

// GetPolicy returns a policy with its rules by ID.
func (s *SQLiteStorage) GetPolicy(ctx context.Context, id string) (*model.Policy, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	return s.getPolicyWhere(ctx, "id = ?", id)
}

// GetActivePolicy returns the lender's currently active policy, or
// common.ErrNotFound if the lender has no active policy.
func (s *SQLiteStorage) GetActivePolicy(ctx context.Context, lenderID string) (*model.Policy, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(lenderID, "lenderID"); err != nil {
		return nil, err
	}

	return s.getPolicyWhere(ctx, "lender_id = ? AND active = 1", lenderID)
}

func (s *SQLiteStorage) getPolicyWhere(ctx context.Context, where string, arg any) (*model.Policy, error) {
	var policy model.Policy
	var active int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, lender_id, name, version, active, created_at
		FROM policies
		WHERE `+where, arg).Scan(
		&policy.ID, &policy.LenderID, &policy.Name, &policy.Version, &active, &policy.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("policy for %v: %w", arg, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query policy: %w", err)
	}
	policy.Active = active == 1

	rules, err := s.policyRules(ctx, policy.ID)
	if err != nil {
		return nil, err
	}
	policy.Rules = rules
	return &policy, nil
}

// ListActivePolicies returns every lender's active policy with rules loaded.
// This is the evaluation snapshot the matching orchestrator works from.
func (s *SQLiteStorage) ListActivePolicies(ctx context.Context) ([]model.Policy, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lender_id, name, version, created_at
		FROM policies
		WHERE active = 1
		ORDER BY lender_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active policies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var policies []model.Policy
	for rows.Next() {
		var policy model.Policy
		if err := rows.Scan(&policy.ID, &policy.LenderID, &policy.Name,
			&policy.Version, &policy.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policy.Active = true
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}

	for i := range policies {
		rules, err := s.policyRules(ctx, policies[i].ID)
		if err != nil {
			return nil, err
		}
		policies[i].Rules = rules
	}

	return policies, nil
}

func (s *SQLiteStorage) policyRules(ctx context.Context, policyID string) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, policy_id, parameter_name, operator, value, kind, weight, failure_reason, provenance, position
		FROM policy_rules
		WHERE policy_id = ?
		ORDER BY position`, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		var rule model.Rule
		var operator, kind, value string
		if err := rows.Scan(&rule.ID, &rule.PolicyID, &rule.Parameter, &operator, &value,
			&kind, &rule.Weight, &rule.FailureReason, &rule.Provenance, &rule.Position); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.Operator = model.Operator(operator)
		rule.Kind = model.RuleKind(kind)
		if err := json.Unmarshal([]byte(value), &rule.Value); err != nil {
			return nil, fmt.Errorf("failed to decode rule value for %q: %w", rule.Parameter, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}
