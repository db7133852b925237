package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/shared/db"
)

var _ domain.LocalStore = (*SQLiteLocalStore)(nil)

// SQLiteLocalStore implements domain.LocalStore on a single kv table. The
// collection is one JSON value under domain.LocalPostsKey.
type SQLiteLocalStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewLocalStore creates a store over an already migrated database.
func NewLocalStore(db *sql.DB) *SQLiteLocalStore {
	return &SQLiteLocalStore{
		db:  db,
		now: time.Now,
	}
}

const (
	getValueQuery = `SELECT value FROM kv WHERE key = ?`

	putValueQuery = `
	INSERT INTO kv (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
`

	deleteValueQuery = `DELETE FROM kv WHERE key = ?`
)

// Get returns the raw value stored under key.
func (s *SQLiteLocalStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := db.GetExecutor(ctx, s.db).QueryRowContext(ctx, getValueQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to read key %q: %w", domain.ErrStorage, key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (s *SQLiteLocalStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", domain.ErrStorage)
	}
	if value == nil {
		value = []byte{}
	}

	_, err := db.GetExecutor(ctx, s.db).ExecContext(ctx, putValueQuery, key, value, s.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: failed to write key %q: %w", domain.ErrStorage, key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteLocalStore) Delete(ctx context.Context, key string) error {
	if _, err := db.GetExecutor(ctx, s.db).ExecContext(ctx, deleteValueQuery, key); err != nil {
		return fmt.Errorf("%w: failed to delete key %q: %w", domain.ErrStorage, key, err)
	}
	return nil
}

// Read decodes the stored collection. A value that does not decode is a
// storage failure rather than an absent collection.
func (s *SQLiteLocalStore) Read(ctx context.Context) (domain.Collection, bool, error) {
	raw, ok, err := s.Get(ctx, domain.LocalPostsKey)
	if err != nil || !ok {
		return nil, false, err
	}

	var posts domain.Collection
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode stored posts: %w", domain.ErrStorage, err)
	}
	if posts == nil {
		posts = domain.Collection{}
	}
	return posts, true, nil
}

// Write replaces the stored collection.
func (s *SQLiteLocalStore) Write(ctx context.Context, posts domain.Collection) error {
	if posts == nil {
		posts = domain.Collection{}
	}

	raw, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("%w: failed to encode posts: %w", domain.ErrStorage, err)
	}
	return s.Put(ctx, domain.LocalPostsKey, raw)
}

// Clear removes the stored collection. Credentials and tokens are kept.
func (s *SQLiteLocalStore) Clear(ctx context.Context) error {
	return s.Delete(ctx, domain.LocalPostsKey)
}
