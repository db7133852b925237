package db

import (
	"context"
	"database/sql"
)

// Database is the journal's local SQL database. Connect must run before DB is
// used.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
	// Path names the file backing the database.
	Path() string
}

// Executor is the subset of *sql.DB and *sql.Tx that stores query through.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
