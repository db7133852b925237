package sqlite

import (
	"path/filepath"
	"testing"
)

func TestNewSQLiteDB(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "explicit path", path: "/tmp/test.db", want: "/tmp/test.db"},
		{name: "default path", path: "", want: DefaultPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := NewSQLiteDB(&SQLiteConfig{Path: tt.path})
			if database.Path() != tt.want {
				t.Errorf("Path() = %v, want %v", database.Path(), tt.want)
			}
		})
	}
}

func TestSQLiteDB_Connect(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})

	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	if database.DB() == nil {
		t.Error("DB() returned nil after Connect()")
	}

	if err := database.Connect(); err == nil {
		t.Error("expected error connecting twice")
	}
}

func TestSQLiteDB_Close(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})

	if err := database.Close(); err != nil {
		t.Errorf("Close() before Connect() error = %v", err)
	}
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if database.DB() != nil {
		t.Error("DB() should return nil after Close()")
	}
}

func TestSQLiteDB_InMemorySharesOneDatabase(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: ":memory:"})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	conn := database.DB()
	if _, err := conn.Exec("INSERT INTO kv (key, value, updated_at) VALUES ('k', 'v', CURRENT_TIMESTAMP)"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
