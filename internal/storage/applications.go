package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
)

// SaveApplication persists a submitted application. The form data is stored
// as JSON keyed by parameter name; the schema grows with the registry, not
// with table columns.
func (s *SQLiteStorage) SaveApplication(ctx context.Context, app *model.LoanApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("%w: application", ErrNilParameter)
	}
	if err := validateString(app.ID, "application ID"); err != nil {
		return err
	}
	if err := validateString(app.ApplicantName, "applicant name"); err != nil {
		return err
	}

	data, err := json.Marshal(app.Data)
	if err != nil {
		return fmt.Errorf("failed to encode form data: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (id, applicant_name, form_data, status)
		VALUES (?, ?, ?, ?)`,
		app.ID, app.ApplicantName, string(data), string(app.Status),
	); err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// GetApplication returns an application by ID.
func (s *SQLiteStorage) GetApplication(ctx context.Context, id string) (*model.LoanApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var app model.LoanApplication
	var data, status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, applicant_name, form_data, status, created_at
		FROM applications
		WHERE id = ?`, id).Scan(
		&app.ID, &app.ApplicantName, &data, &status, &app.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query application: %w", err)
	}

	app.Status = model.ApplicationStatus(status)
	if err := json.Unmarshal([]byte(data), &app.Data); err != nil {
		return nil, fmt.Errorf("failed to decode form data: %w", err)
	}
	return &app, nil
}

// ListApplications returns all applications, newest first.
func (s *SQLiteStorage) ListApplications(ctx context.Context) ([]model.LoanApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, applicant_name, form_data, status, created_at
		FROM applications
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var apps []model.LoanApplication
	for rows.Next() {
		var app model.LoanApplication
		var data, status string
		if err := rows.Scan(&app.ID, &app.ApplicantName, &data, &status, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		app.Status = model.ApplicationStatus(status)
		if err := json.Unmarshal([]byte(data), &app.Data); err != nil {
			return nil, fmt.Errorf("failed to decode form data: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}

	return apps, nil
}

// SetApplicationStatus updates the batch status for an application.
func (s *SQLiteStorage) SetApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("application %q: %w", id, common.ErrNotFound)
	}
	return nil
}
