package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/model"
)

// CreateLender persists a new lender.
func (s *SQLiteStorage) CreateLender(ctx context.Context, lender *model.Lender) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLender(lender); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lenders (id, name, description)
		VALUES (?, ?, ?)`,
		lender.ID, lender.Name, lender.Description,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("lender %q: %w", lender.Name, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert lender %q: %w", lender.Name, err)
	}
	return nil
}

// GetLender returns a lender by ID.
func (s *SQLiteStorage) GetLender(ctx context.Context, id string) (*model.Lender, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	return s.getLenderWhere(ctx, "id = ?", id)
}

// GetLenderByName returns a lender by its unique name.
func (s *SQLiteStorage) GetLenderByName(ctx context.Context, name string) (*model.Lender, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	return s.getLenderWhere(ctx, "name = ?", name)
}

func (s *SQLiteStorage) getLenderWhere(ctx context.Context, where string, arg any) (*model.Lender, error) {
	var lender model.Lender
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at
		FROM lenders
		WHERE `+where, arg).Scan(
		&lender.ID, &lender.Name, &lender.Description, &lender.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lender %v: %w", arg, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lender: %w", err)
	}
	return &lender, nil
}

// ListLenders returns all lenders ordered by name.
func (s *SQLiteStorage) ListLenders(ctx context.Context) ([]model.Lender, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM lenders
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lenders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lenders []model.Lender
	for rows.Next() {
		var lender model.Lender
		if err := rows.Scan(&lender.ID, &lender.Name, &lender.Description, &lender.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lender: %w", err)
		}
		lenders = append(lenders, lender)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lenders: %w", err)
	}

	return lenders, nil
}
