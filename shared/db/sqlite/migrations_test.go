package sqlite

import (
	"path/filepath"
	"testing"
)

func connectTemp(t *testing.T) *SQLiteDB {
	t.Helper()

	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestRunMigrations(t *testing.T) {
	conn := connectTemp(t).DB()

	var count int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check kv table: %v", err)
	}
	if count != 1 {
		t.Errorf("kv table not created")
	}

	var version int
	if err := conn.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	database := connectTemp(t)
	conn := database.DB()

	for i := 0; i < 2; i++ {
		if err := runMigrations(conn); err != nil {
			t.Fatalf("runMigrations() pass %d error = %v", i, err)
		}
	}

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("recorded %d migrations, want %d", count, len(migrations))
	}
}
