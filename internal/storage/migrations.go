package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS parameter_definitions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					label TEXT NOT NULL DEFAULT '',
					data_type TEXT NOT NULL,
					allowed_values TEXT,
					category TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_parameter_definitions_name ON parameter_definitions(name)`,

				`CREATE TABLE IF NOT EXISTS lenders (
					id TEXT PRIMARY KEY,
					name TEXT UNIQUE NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS policies (
					id TEXT PRIMARY KEY,
					lender_id TEXT NOT NULL,
					name TEXT NOT NULL,
					version INTEGER NOT NULL,
					active INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(lender_id, version),
					FOREIGN KEY (lender_id) REFERENCES lenders(id)
				)`,
				`CREATE UNIQUE INDEX idx_policies_single_active
					ON policies(lender_id) WHERE active = 1`,

				`CREATE TABLE IF NOT EXISTS policy_rules (
					id TEXT PRIMARY KEY,
					policy_id TEXT NOT NULL,
					parameter_name TEXT NOT NULL,
					operator TEXT NOT NULL,
					value TEXT NOT NULL,
					kind TEXT NOT NULL,
					weight INTEGER NOT NULL DEFAULT 0,
					failure_reason TEXT NOT NULL DEFAULT '',
					provenance TEXT NOT NULL DEFAULT '',
					position INTEGER NOT NULL DEFAULT 0,
					FOREIGN KEY (policy_id) REFERENCES policies(id),
					FOREIGN KEY (parameter_name) REFERENCES parameter_definitions(name)
				)`,
				`CREATE INDEX idx_policy_rules_policy ON policy_rules(policy_id)`,

				`CREATE TABLE IF NOT EXISTS applications (
					id TEXT PRIMARY KEY,
					applicant_name TEXT NOT NULL,
					form_data TEXT NOT NULL,
					status TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Match results and durable batch completion counters",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS match_batches (
					application_id TEXT PRIMARY KEY,
					expected INTEGER NOT NULL,
					completed INTEGER NOT NULL DEFAULT 0,
					started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (application_id) REFERENCES applications(id)
				)`,

				`CREATE TABLE IF NOT EXISTS match_results (
					id TEXT PRIMARY KEY,
					application_id TEXT NOT NULL,
					lender_id TEXT NOT NULL,
					policy_id TEXT NOT NULL,
					policy_version INTEGER NOT NULL,
					outcome TEXT NOT NULL,
					fit_score INTEGER,
					evaluations TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(application_id, lender_id),
					FOREIGN KEY (application_id) REFERENCES applications(id),
					FOREIGN KEY (lender_id) REFERENCES lenders(id),
					FOREIGN KEY (policy_id) REFERENCES policies(id)
				)`,
				`CREATE INDEX idx_match_results_application ON match_results(application_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Batch membership snapshot",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS match_batch_members (
					application_id TEXT NOT NULL,
					lender_id TEXT NOT NULL,
					policy_id TEXT NOT NULL,
					PRIMARY KEY (application_id, lender_id),
					FOREIGN KEY (application_id) REFERENCES match_batches(application_id),
					FOREIGN KEY (lender_id) REFERENCES lenders(id),
					FOREIGN KEY (policy_id) REFERENCES policies(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Ensure schema version table exists
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	currentVersion, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}
			if _, err := tx.Exec(
				`INSERT INTO schema_versions (version, description) VALUES (?, ?)`,
				migration.Version, migration.Description,
			); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	finalVersion, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("schema version %d does not match expected version %d",
			finalVersion, ExpectedSchemaVersion)
	}

	return nil
}

func (s *SQLiteStorage) currentSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_versions`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
