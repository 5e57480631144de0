package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
)

// StartMatchBatch records the evaluation snapshot taken at dispatch time:
// the batch size plus the (lender, policy) membership. Idempotent: a
// retried dispatch keeps the original snapshot, so policies activated after
// the batch began are not retroactively included.
func (s *SQLiteStorage) StartMatchBatch(ctx context.Context, applicationID string, members []model.BatchMember) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(applicationID, "applicationID"); err != nil {
		return err
	}
	for _, member := range members {
		if member.LenderID == "" || member.PolicyID == "" {
			return fmt.Errorf("%w: batch member needs lender and policy IDs", ErrInvalidResult)
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO match_batches (application_id, expected)
			VALUES (?, ?)
			ON CONFLICT(application_id) DO NOTHING`,
			applicationID, len(members),
		)
		if err != nil {
			return fmt.Errorf("failed to start match batch: %w", err)
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read insert result: %w", err)
		}
		if inserted == 0 {
			// Retried dispatch; the recorded snapshot stands
			return nil
		}

		for _, member := range members {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO match_batch_members (application_id, lender_id, policy_id)
				VALUES (?, ?, ?)`,
				applicationID, member.LenderID, member.PolicyID,
			); err != nil {
				return fmt.Errorf("failed to record batch member: %w", err)
			}
		}
		return nil
	})
}

// BatchMembers returns the (lender, policy) snapshot recorded when the
// application's batch started.
func (s *SQLiteStorage) BatchMembers(ctx context.Context, applicationID string) ([]model.BatchMember, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(applicationID, "applicationID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT lender_id, policy_id FROM match_batch_members
		WHERE application_id = ?
		ORDER BY lender_id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []model.BatchMember
	for rows.Next() {
		var member model.BatchMember
		if err := rows.Scan(&member.LenderID, &member.PolicyID); err != nil {
			return nil, fmt.Errorf("failed to scan batch member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batch members: %w", err)
	}

	return members, nil
}

// SaveMatchResult persists one lender's verdict and advances the durable
// completion counter. Results for lenders outside the recorded batch
// snapshot are rejected. The (application, lender) unique constraint makes
// the write idempotent under retries; the counter only moves for first
// writes. Returns true when this write completed the batch.
func (s *SQLiteStorage) SaveMatchResult(ctx context.Context, result *model.MatchResult) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateMatchResult(result); err != nil {
		return false, err
	}

	evaluations, err := json.Marshal(result.Evaluations)
	if err != nil {
		return false, fmt.Errorf("failed to encode evaluations: %w", err)
	}

	var fitScore sql.NullInt64
	if result.FitScore != nil {
		fitScore = sql.NullInt64{Int64: int64(*result.FitScore), Valid: true}
	}

	var batchDone bool
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var member int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(1) FROM match_batch_members
			WHERE application_id = ? AND lender_id = ?`,
			result.ApplicationID, result.LenderID).Scan(&member); err != nil {
			return fmt.Errorf("failed to check batch membership: %w", err)
		}
		if member == 0 {
			return fmt.Errorf("%w: lender %s is not in the batch snapshot for application %s",
				ErrInvalidResult, result.LenderID, result.ApplicationID)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO match_results (id, application_id, lender_id, policy_id, policy_version, outcome, fit_score, evaluations)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(application_id, lender_id) DO NOTHING`,
			result.ID, result.ApplicationID, result.LenderID, result.PolicyID,
			result.PolicyVersion, string(result.Outcome), fitScore, string(evaluations),
		)
		if err != nil {
			return fmt.Errorf("failed to insert match result: %w", err)
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read insert result: %w", err)
		}
		if inserted == 0 {
			// Retried write for a lender already recorded
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE match_batches SET completed = completed + 1
			WHERE application_id = ? AND completed < expected`, result.ApplicationID); err != nil {
			return fmt.Errorf("failed to advance completion counter: %w", err)
		}

		var expected, completed int
		err = tx.QueryRowContext(ctx, `
			SELECT expected, completed FROM match_batches
			WHERE application_id = ?`, result.ApplicationID).Scan(&expected, &completed)
		if err != nil {
			return fmt.Errorf("failed to read completion counter: %w", err)
		}

		if completed >= expected {
			if _, err := tx.ExecContext(ctx, `
				UPDATE applications SET status = ?
				WHERE id = ? AND status = ?`,
				string(model.StatusComplete), result.ApplicationID,
				string(model.StatusProcessing)); err != nil {
				return fmt.Errorf("failed to complete batch: %w", err)
			}
			batchDone = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if batchDone {
		slog.Info("match batch complete", "application_id", result.ApplicationID)
	}
	return batchDone, nil
}

// GetMatchResults returns every persisted verdict for the application,
// sorted by fit score descending with declined lenders last. Lender and
// policy names are joined in for display.
func (s *SQLiteStorage) GetMatchResults(ctx context.Context, applicationID string) ([]model.MatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(applicationID, "applicationID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.application_id, r.lender_id, l.name, r.policy_id, p.name,
			r.policy_version, r.outcome, r.fit_score, r.evaluations, r.created_at
		FROM match_results r
		JOIN lenders l ON l.id = r.lender_id
		JOIN policies p ON p.id = r.policy_id
		WHERE r.application_id = ?
		ORDER BY r.fit_score IS NULL, r.fit_score DESC, l.name`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.MatchResult
	for rows.Next() {
		var result model.MatchResult
		var outcome, evaluations string
		var fitScore sql.NullInt64
		if err := rows.Scan(&result.ID, &result.ApplicationID, &result.LenderID, &result.LenderName,
			&result.PolicyID, &result.PolicyName, &result.PolicyVersion, &outcome,
			&fitScore, &evaluations, &result.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match result: %w", err)
		}
		result.Outcome = model.Outcome(outcome)
		if fitScore.Valid {
			score := int(fitScore.Int64)
			result.FitScore = &score
		}
		if err := json.Unmarshal([]byte(evaluations), &result.Evaluations); err != nil {
			return nil, fmt.Errorf("failed to decode evaluations: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match results: %w", err)
	}

	return results, nil
}

// BatchProgress returns the snapshot size and completion count for an
// application's batch.
func (s *SQLiteStorage) BatchProgress(ctx context.Context, applicationID string) (expected, completed int, err error) {
	if err := validateContext(ctx); err != nil {
		return 0, 0, err
	}
	if err := validateString(applicationID, "applicationID"); err != nil {
		return 0, 0, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT expected, completed FROM match_batches
		WHERE application_id = ?`, applicationID).Scan(&expected, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("batch for %q: %w", applicationID, common.ErrNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read batch progress: %w", err)
	}
	return expected, completed, nil
}
