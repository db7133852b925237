package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/shared/db/sqlite"
	"github.com/google/go-cmp/cmp"
)

// setupTestStore opens a migrated SQLite database in a temp dir.
func setupTestStore(t *testing.T) *SQLiteLocalStore {
	t.Helper()

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "journal.db")})
	if err := database.Connect(); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewLocalStore(database.DB())
}

func TestLocalStore_ReadMissing(t *testing.T) {
	store := setupTestStore(t)

	posts, ok, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ok {
		t.Errorf("expected no stored collection, got %d posts", len(posts))
	}
}

func TestLocalStore_WriteRead(t *testing.T) {
	tests := []struct {
		name  string
		posts domain.Collection
	}{
		{name: "Defaults", posts: domain.DefaultCollection()},
		{name: "Empty collection", posts: domain.Collection{}},
		{
			name: "Unknown block type preserved",
			posts: domain.Collection{{
				Slug: "a", Title: "A", Date: "2024-01-01", Excerpt: "e",
				Content: []domain.ContentBlock{{Type: "image", Content: "https://example.com/x.png"}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()

			if err := store.Write(ctx, tt.posts); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			got, ok, err := store.Read(ctx)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !ok {
				t.Fatal("expected stored collection")
			}
			if diff := cmp.Diff(tt.posts, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocalStore_WriteReplaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, domain.DefaultCollection()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(ctx, domain.Collection{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, _, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty collection after replace, got %d posts", len(got))
	}
}

func TestLocalStore_ClearKeepsOtherKeys(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, domain.DefaultCollection()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Put(ctx, "google_drive_credentials", []byte(`{"clientId":"c","apiKey":"k"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}

	if _, ok, _ := store.Read(ctx); ok {
		t.Error("collection still present after Clear()")
	}
	if _, ok, _ := store.Get(ctx, "google_drive_credentials"); !ok {
		t.Error("Clear() removed credentials")
	}
}

func TestLocalStore_CorruptValueIsStorageFailure(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, domain.LocalPostsKey, []byte("{not json")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	_, ok, err := store.Read(ctx)
	if !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Read() error = %v, want ErrStorage", err)
	}
	if ok {
		t.Error("corrupt value reported as present")
	}
}

func TestLocalStore_ClosedDatabase(t *testing.T) {
	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "journal.db")})
	if err := database.Connect(); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	store := NewLocalStore(database.DB())
	database.Close()

	ctx := context.Background()
	if err := store.Write(ctx, domain.DefaultCollection()); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Write() error = %v, want ErrStorage", err)
	}
	if _, _, err := store.Read(ctx); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Read() error = %v, want ErrStorage", err)
	}
}

func TestLocalStore_EmptyKey(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Put(context.Background(), "", []byte("x")); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Put() error = %v, want ErrStorage", err)
	}
}
