package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
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

type fixedPrompter struct {
	code string
	err  error

	gotURL   string
	gotState string
}

func (p *fixedPrompter) PromptCode(_ context.Context, authURL, state string) (string, error) {
	p.gotURL, p.gotState = authURL, state
	return p.code, p.err
}

func tokenServer(t *testing.T, wantCode string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != wantCode {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","refresh_token":"rt-1","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		Scopes:       []string{"scope-a"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
	}
}

func TestAuthenticator_SignInSignOut(t *testing.T) {
	srv := tokenServer(t, "good-code")
	store := newMemStore()
	prompter := &fixedPrompter{code: "good-code"}
	auth := NewAuthenticator("drive", testConfig(srv), store, prompter)
	ctx := context.Background()

	assert.False(t, auth.SignedIn(ctx))

	require.NoError(t, auth.SignIn(ctx))
	assert.True(t, auth.SignedIn(ctx))

	u, err := url.Parse(prompter.gotURL)
	require.NoError(t, err)
	assert.Equal(t, prompter.gotState, u.Query().Get("state"))
	assert.Equal(t, "offline", u.Query().Get("access_type"))

	tok, ok, err := auth.Token(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "at-1", tok.AccessToken)
	assert.Equal(t, "rt-1", tok.RefreshToken)

	// An existing session is kept without prompting again.
	prompter.gotURL = ""
	require.NoError(t, auth.SignIn(ctx))
	assert.Empty(t, prompter.gotURL)

	require.NoError(t, auth.SignOut(ctx))
	assert.False(t, auth.SignedIn(ctx))
	_, stored, _ := store.Get(ctx, TokenKey("drive"))
	assert.False(t, stored)
}

func TestAuthenticator_SignInFailures(t *testing.T) {
	srv := tokenServer(t, "good-code")

	tests := []struct {
		name     string
		prompter CodePrompter
	}{
		{name: "No prompter", prompter: nil},
		{name: "Prompt abandoned", prompter: &fixedPrompter{err: errors.New("closed")}},
		{name: "Exchange rejected", prompter: &fixedPrompter{code: "bad-code"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuthenticator("drive", testConfig(srv), newMemStore(), tt.prompter)
			err := auth.SignIn(context.Background())
			assert.ErrorIs(t, err, domain.ErrRemoteAuth)
			assert.False(t, auth.SignedIn(context.Background()))
		})
	}
}

func TestAuthenticator_ClientRequiresToken(t *testing.T) {
	srv := tokenServer(t, "good-code")
	auth := NewAuthenticator("drive", testConfig(srv), newMemStore(), nil)

	_, err := auth.Client(context.Background())
	assert.ErrorIs(t, err, domain.ErrRemoteAuth)
}

func TestAuthenticator_ClientSendsBearer(t *testing.T) {
	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer api.Close()

	srv := tokenServer(t, "good-code")
	store := newMemStore()
	require.NoError(t, store.Put(context.Background(), TokenKey("drive"), []byte(`{"access_token":"stored","token_type":"Bearer"}`)))

	auth := NewAuthenticator("drive", testConfig(srv), store, nil)
	client, err := auth.Client(context.Background())
	require.NoError(t, err)

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, strings.HasSuffix(gotAuth, "stored"), "authorization header %q", gotAuth)
}

func TestAuthenticator_UnreadableTokenIsSignedOut(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Put(context.Background(), TokenKey("drive"), []byte("garbage")))

	auth := NewAuthenticator("drive", &oauth2.Config{}, store, nil)
	assert.False(t, auth.SignedIn(context.Background()))
}
