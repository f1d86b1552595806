package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version of the results database.
const SchemaVersion = 1

// schemaV1 holds the registry of result tables. Row data lives in per-result
// tables created on demand; the registry tracks their lifecycle so that only
// finalized tables are visible.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS result_tables (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    data_table TEXT NOT NULL,
    finalized INTEGER NOT NULL DEFAULT 0,
    columns TEXT NOT NULL,  -- JSON array of {name, kind, values}
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_result_tables_name ON result_tables(name);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema initializes the results database schema, applying migrations
// when the stored version is behind.
func InitSchema(ctx context.Context, db *sql.DB) error {
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		// No schema_version table yet: fresh database.
		return createSchema(ctx, db)
	}

	if currentVersion < SchemaVersion {
		if err := migrateSchema(ctx, db, currentVersion); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return tx.Commit()
}

func migrateSchema(ctx context.Context, db *sql.DB, currentVersion int) error {
	// Single version so far; migrations go here when v2 lands.
	_ = currentVersion
	return nil
}
