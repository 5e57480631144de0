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

// CreateParameterIfAbsent inserts the definition if no parameter with the
// same name exists, and returns the stored definition either way. The insert
// uses ON CONFLICT DO NOTHING so two concurrent ingestions racing on the
// same name both observe a single winner.
func (s *SQLiteStorage) CreateParameterIfAbsent(ctx context.Context, def *model.ParameterDefinition) (*model.ParameterDefinition, bool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, false, err
	}
	if err := validateParameterDefinition(def); err != nil {
		return nil, false, err
	}

	allowed, err := encodeAllowedValues(def.AllowedValues)
	if err != nil {
		return nil, false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO parameter_definitions (name, label, data_type, allowed_values, category, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING`,
		def.Name, def.Label, string(def.Type), allowed, def.Category, def.Description,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert parameter %q: %w", def.Name, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read insert result: %w", err)
	}

	stored, err := s.GetParameter(ctx, def.Name)
	if err != nil {
		return nil, false, err
	}

	if inserted > 0 {
		slog.Debug("created parameter definition", "name", stored.Name, "type", stored.Type)
	}
	return stored, inserted > 0, nil
}

// GetParameter returns the definition for the given name.
func (s *SQLiteStorage) GetParameter(ctx context.Context, name string) (*model.ParameterDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, label, data_type, allowed_values, category, description, created_at
		FROM parameter_definitions
		WHERE name = ?`, name)

	def, err := scanParameter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("parameter %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query parameter %q: %w", name, err)
	}
	return def, nil
}

// ListParameters returns every definition in creation order, which keeps
// dynamic form rendering deterministic.
func (s *SQLiteStorage) ListParameters(ctx context.Context) ([]model.ParameterDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, label, data_type, allowed_values, category, description, created_at
		FROM parameter_definitions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var defs []model.ParameterDefinition
	for rows.Next() {
		def, err := scanParameter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parameter: %w", err)
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parameters: %w", err)
	}

	return defs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParameter(row rowScanner) (*model.ParameterDefinition, error) {
	var def model.ParameterDefinition
	var dataType string
	var allowed sql.NullString
	if err := row.Scan(&def.ID, &def.Name, &def.Label, &dataType, &allowed,
		&def.Category, &def.Description, &def.CreatedAt); err != nil {
		return nil, err
	}
	def.Type = model.DataType(dataType)

	if allowed.Valid && allowed.String != "" {
		if err := json.Unmarshal([]byte(allowed.String), &def.AllowedValues); err != nil {
			return nil, fmt.Errorf("failed to decode allowed values for %q: %w", def.Name, err)
		}
	}
	return &def, nil
}

func encodeAllowedValues(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode allowed values: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
