package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type memStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemStore() *memStore { return &memStore{m: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

type fakeAuth struct {
	signedIn bool
}

func (f *fakeAuth) SignedIn(context.Context) bool { return f.signedIn }

func (f *fakeAuth) SignIn(context.Context) error {
	f.signedIn = true
	return nil
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.signedIn = false
	return nil
}

func (f *fakeAuth) TokenSource(context.Context) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}), nil
}

// fakeDocument stores the document as Firestore would: plain values.
type fakeDocument struct {
	fields map[string]any
	closed int
}

func (f *fakeDocument) Get(context.Context) (domain.Collection, bool, error) {
	v, ok := f.fields[postsField]
	if !ok {
		return nil, false, nil
	}
	posts, err := fromDocumentValue(v)
	return posts, err == nil, err
}

func (f *fakeDocument) Merge(_ context.Context, posts domain.Collection) error {
	v, err := toDocumentValue(posts)
	if err != nil {
		return err
	}
	f.fields[postsField] = v
	return nil
}

func (f *fakeDocument) Close() error {
	f.closed++
	return nil
}

func newTestAdapter(t *testing.T, auth *fakeAuth, doc *fakeDocument) *FirestoreAdapter {
	t.Helper()
	adapter := NewFirestoreAdapter(newMemStore(), nil, OAuthClient{ID: "client"})
	adapter.connect = func(context.Context, Config) (*session, error) {
		return &session{
			auth: auth,
			open: func(context.Context, oauth2.TokenSource) (documentStore, error) { return doc, nil },
		}, nil
	}
	return adapter
}

func TestConfigWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "Fills domain and bucket",
			in:   Config{APIKey: "k", ProjectID: "journal-123"},
			want: Config{APIKey: "k", ProjectID: "journal-123", AuthDomain: "journal-123.firebaseapp.com", StorageBucket: "journal-123.appspot.com"},
		},
		{
			name: "Keeps explicit values",
			in:   Config{ProjectID: "p", AuthDomain: "auth.example.com", StorageBucket: "bucket"},
			want: Config{ProjectID: "p", AuthDomain: "auth.example.com", StorageBucket: "bucket"},
		},
		{
			name: "No project",
			in:   Config{APIKey: "k"},
			want: Config{APIKey: "k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.WithDefaults())
		})
	}
}

func TestFirestoreAdapter_Configured(t *testing.T) {
	tests := []struct {
		name string
		cfg  string
		want bool
	}{
		{name: "Nothing stored", want: false},
		{name: "Project only", cfg: `{"projectId":"p"}`, want: false},
		{name: "API key only", cfg: `{"apiKey":"k"}`, want: false},
		{name: "Both", cfg: `{"apiKey":"k","projectId":"p"}`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, &fakeAuth{}, &fakeDocument{fields: map[string]any{}})
			ctx := context.Background()
			if tt.cfg != "" {
				require.NoError(t, adapter.SetCredentials(ctx, json.RawMessage(tt.cfg)))
			}
			assert.Equal(t, tt.want, adapter.IsConfigured(ctx))
		})
	}
}

func TestFirestoreAdapter_RoundTrip(t *testing.T) {
	auth := &fakeAuth{}
	doc := &fakeDocument{fields: map[string]any{"displayName": "kept"}}
	adapter := newTestAdapter(t, auth, doc)
	ctx := context.Background()
	require.NoError(t, adapter.SetCredentials(ctx, json.RawMessage(`{"apiKey":"k","projectId":"p"}`)))

	_, err := adapter.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrRemoteAuth)

	require.NoError(t, adapter.SignIn(ctx))

	posts, err := adapter.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	require.NoError(t, adapter.Save(ctx, domain.DefaultCollection()))
	assert.Equal(t, "kept", doc.fields["displayName"])

	posts, err = adapter.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(domain.DefaultCollection(), posts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, doc.closed)
}

func TestFirestoreAdapter_SetCredentialsStoresDefaults(t *testing.T) {
	adapter := newTestAdapter(t, &fakeAuth{}, &fakeDocument{})
	ctx := context.Background()
	require.NoError(t, adapter.SetCredentials(ctx, json.RawMessage(`{"apiKey":"k","projectId":"p"}`)))

	raw, ok, err := adapter.Credentials(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	var cfg Config
	require.NoError(t, json.Unmarshal(raw, &cfg))
	assert.Equal(t, "p.firebaseapp.com", cfg.AuthDomain)
	assert.Equal(t, "p.appspot.com", cfg.StorageBucket)
}

func TestFirestoreAdapter_NoOAuthClientIsUnavailable(t *testing.T) {
	adapter := NewFirestoreAdapter(newMemStore(), nil, OAuthClient{})
	ctx := context.Background()
	require.NoError(t, adapter.SetCredentials(ctx, json.RawMessage(`{"apiKey":"k","projectId":"p"}`)))

	assert.True(t, adapter.IsConfigured(ctx))
	assert.False(t, adapter.IsAvailable(ctx))
	assert.Equal(t, domain.RemoteUnavailable, domain.StatusOf(ctx, adapter))
}

func TestHandleFirestoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "Unauthenticated", err: status.Error(codes.Unauthenticated, "no"), want: domain.ErrRemoteAuth},
		{name: "Permission denied", err: status.Error(codes.PermissionDenied, "rules"), want: domain.ErrRemoteAuth},
		{name: "Unavailable", err: status.Error(codes.Unavailable, "down"), want: domain.ErrRemoteSync},
		{name: "Plain", err: errors.New("boom"), want: domain.ErrRemoteSync},
		{name: "Already auth", err: fmt.Errorf("%w: refresh", domain.ErrRemoteAuth), want: domain.ErrRemoteAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, handleFirestoreError("op", tt.err), tt.want)
		})
	}
}

func TestFromDocumentValueRejectsGarbage(t *testing.T) {
	_, err := fromDocumentValue(map[string]any{"not": "a list"})
	assert.ErrorIs(t, err, domain.ErrRemoteSync)
}
