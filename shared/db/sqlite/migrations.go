package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dfryer1193/journal/shared/db"
)

type migration struct {
	version int
	name    string
	up      string
}

// migrations is append-only; applied versions are recorded in schema_migrations.
var migrations = []migration{
	{
		version: 1,
		name:    "create_kv_table",
		up: `
			CREATE TABLE IF NOT EXISTS kv (
				key TEXT PRIMARY KEY,
				value BLOB NOT NULL,
				updated_at TIMESTAMP NOT NULL
			);
		`,
	},
}

const (
	createMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
	currentVersionSQL  = `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`
	recordMigrationSQL = `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`
)

func runMigrations(conn *sql.DB) error {
	ctx := context.Background()

	if _, err := conn.ExecContext(ctx, createMigrationsTableSQL); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	if err := conn.QueryRowContext(ctx, currentVersionSQL).Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		err := db.RunInTransaction(ctx, conn, func(ctx context.Context) error {
			exec := db.GetExecutor(ctx, conn)
			if _, err := exec.ExecContext(ctx, m.up); err != nil {
				return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
			}
			if _, err := exec.ExecContext(ctx, recordMigrationSQL, m.version, m.name); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
