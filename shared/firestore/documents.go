package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	gfs "cloud.google.com/go/firestore"
	"github.com/dfryer1193/journal/blog/domain"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection = "users"
	postsField      = "posts"
)

// documentStore reads and merges the signed-in user's document.
type documentStore interface {
	Get(ctx context.Context) (domain.Collection, bool, error)
	Merge(ctx context.Context, posts domain.Collection) error
	Close() error
}

// userDocument implements documentStore on users/{uid}.
type userDocument struct {
	client *gfs.Client
	doc    *gfs.DocumentRef
}

func openUserDocument(ctx context.Context, projectID string, ts oauth2.TokenSource) (documentStore, error) {
	uid, err := resolveUID(ctx, ts)
	if err != nil {
		return nil, err
	}

	client, err := gfs.NewClient(ctx, projectID, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create firestore client: %w", domain.ErrRemoteUnavailable, err)
	}

	return &userDocument{
		client: client,
		doc:    client.Collection(usersCollection).Doc(uid),
	}, nil
}

// resolveUID asks the identity provider for the signed-in user's stable id.
func resolveUID(ctx context.Context, ts oauth2.TokenSource) (string, error) {
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create userinfo client: %w", domain.ErrRemoteUnavailable, err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", handleFirestoreError("resolving user id", err)
	}
	if info.Id == "" {
		return "", fmt.Errorf("%w: identity provider returned no user id", domain.ErrRemoteAuth)
	}
	return info.Id, nil
}

func (u *userDocument) Get(ctx context.Context) (domain.Collection, bool, error) {
	snap, err := u.doc.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, handleFirestoreError("reading user document", err)
	}

	value, ok := snap.Data()[postsField]
	if !ok || value == nil {
		return nil, false, nil
	}

	posts, err := fromDocumentValue(value)
	if err != nil {
		return nil, false, err
	}
	return posts, true, nil
}

func (u *userDocument) Merge(ctx context.Context, posts domain.Collection) error {
	value, err := toDocumentValue(posts)
	if err != nil {
		return err
	}

	_, err = u.doc.Set(ctx, map[string]any{postsField: value}, gfs.MergeAll)
	return handleFirestoreError("writing user document", err)
}

func (u *userDocument) Close() error {
	return u.client.Close()
}

// toDocumentValue turns posts into plain maps and slices using their JSON
// field names.
func toDocumentValue(posts domain.Collection) ([]any, error) {
	if posts == nil {
		posts = domain.Collection{}
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode posts: %w", domain.ErrRemoteSync, err)
	}
	var value []any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: failed to encode posts: %w", domain.ErrRemoteSync, err)
	}
	return value, nil
}

func fromDocumentValue(value any) (domain.Collection, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode posts field: %w", domain.ErrRemoteSync, err)
	}
	var posts domain.Collection
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("%w: posts field is not a post collection: %w", domain.ErrRemoteSync, err)
	}
	if posts == nil {
		posts = domain.Collection{}
	}
	return posts, nil
}

// handleFirestoreError classifies gRPC and REST failures.
func handleFirestoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrRemoteAuth) {
		return fmt.Errorf("firestore: %s failed: %w", op, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: firestore: %s failed with status %d: %s", domain.ErrRemoteAuth, op, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%w: firestore: %s failed with status %d: %s", domain.ErrRemoteSync, op, apiErr.Code, apiErr.Message)
	}

	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: firestore: %s failed: %w", domain.ErrRemoteAuth, op, err)
	}
	return fmt.Errorf("%w: firestore: %s failed: %w", domain.ErrRemoteSync, op, err)
}
