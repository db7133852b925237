package domain

import (
	"context"
	"time"
)

// LocalPostsKey is the key under which the local tier keeps the collection.
const LocalPostsKey = "blog_posts"

// KeyValueStore is a durable string-keyed byte store. Remote adapters keep
// their credentials and session tokens in it.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LocalStore is the durable local tier. Every failure it returns wraps
// ErrStorage.
type LocalStore interface {
	KeyValueStore
	// Read returns the stored collection and whether one was present.
	Read(ctx context.Context) (Collection, bool, error)
	Write(ctx context.Context, posts Collection) error
	// Clear removes the collection key only.
	Clear(ctx context.Context) error
}

// RemoteStatus is the externally visible state of a remote adapter.
type RemoteStatus string

const (
	RemoteNotConfigured      RemoteStatus = "not-configured"
	RemoteUnavailable        RemoteStatus = "unavailable"
	RemoteAvailableSignedOut RemoteStatus = "available-signed-out"
	RemoteAvailableSignedIn  RemoteStatus = "available-signed-in"
)

// RemoteAdapter is an optional cloud tier holding a copy of the collection.
//
// IsAvailable lazily initializes the adapter. Concurrent first calls share a
// single attempt and the outcome, including failure, is remembered until Reset.
type RemoteAdapter interface {
	Name() string
	IsConfigured(ctx context.Context) bool
	IsAvailable(ctx context.Context) bool
	IsSignedIn(ctx context.Context) bool
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	// Load returns an empty collection when the remote holds no data.
	Load(ctx context.Context) (Collection, error)
	Save(ctx context.Context, posts Collection) error
	// Reset forgets the memoized initialization so the next call retries.
	Reset()
}

// StatusOf derives the RemoteStatus of r.
func StatusOf(ctx context.Context, r RemoteAdapter) RemoteStatus {
	switch {
	case r == nil || !r.IsConfigured(ctx):
		return RemoteNotConfigured
	case !r.IsAvailable(ctx):
		return RemoteUnavailable
	case !r.IsSignedIn(ctx):
		return RemoteAvailableSignedOut
	default:
		return RemoteAvailableSignedIn
	}
}

// ChangeKind names what happened to the collection.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeImported ChangeKind = "imported"
	ChangeCleared  ChangeKind = "cleared"
)

// ChangeEvent is published to subscribers after the collection changes.
type ChangeEvent struct {
	Kind  ChangeKind `json:"kind"`
	Slug  string     `json:"slug,omitempty"`
	Count int        `json:"count"`
	At    time.Time  `json:"at"`
}
