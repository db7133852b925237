package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/dfryer1193/journal/shared/db"
	_ "modernc.org/sqlite"
)

const (
	// DefaultPath is where the journal database lives when nothing else is configured.
	DefaultPath = "./journal.db"

	memoryPath = ":memory:"
)

type SQLiteConfig struct {
	Path string
}

// SQLiteDB implements db.Database on the pure-Go modernc driver.
type SQLiteDB struct {
	dbPath string
	db     *sql.DB
}

// NewSQLiteDB creates an unconnected database. An empty path falls back to
// DefaultPath.
func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	return &SQLiteDB{dbPath: path}
}

// Path is the file the database was configured with.
func (s *SQLiteDB) Path() string {
	return s.dbPath
}

// Connect opens the database, applies pragmas and runs pending migrations.
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	conn, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to :memory: would otherwise see its own empty database.
	if s.dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = conn
	return nil
}

// Close closes the connection. Closing an unconnected database is a no-op.
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying handle, nil before Connect.
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

var _ db.Database = (*SQLiteDB)(nil)
