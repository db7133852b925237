// Package github keeps the post collection in a secret GitHub gist.
package github

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/shared/remote"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
)

const (
	Name = "gist"

	// CredentialsKey is the local key holding Credentials.
	CredentialsKey = "github_gist_credentials"
	sessionKey     = "github_gist_session"
)

// Credentials is a personal access token with the gist scope.
type Credentials struct {
	Token string `json:"token"`
}

func (c Credentials) configured() bool {
	return c.Token != ""
}

type session struct {
	Login string `json:"login"`
}

var _ domain.RemoteAdapter = (*GistAdapter)(nil)

// GistAdapter implements domain.RemoteAdapter over a single gist file.
type GistAdapter struct {
	store   domain.KeyValueStore
	connect func(ctx context.Context, creds Credentials) (gistService, error)
	init    remote.Initializer[gistService]
}

func NewGistAdapter(store domain.KeyValueStore) *GistAdapter {
	return &GistAdapter{
		store:   store,
		connect: connectGist,
	}
}

func connectGist(ctx context.Context, creds Credentials) (gistService, error) {
	svc := newGistClient(github.NewClient(nil).WithAuthToken(creds.Token))
	if _, err := svc.Verify(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (a *GistAdapter) Name() string { return Name }

// Credentials returns the stored credentials as JSON.
func (a *GistAdapter) Credentials(ctx context.Context) (json.RawMessage, bool, error) {
	var creds Credentials
	ok, err := remote.LoadJSON(ctx, a.store, CredentialsKey, &creds)
	if err != nil || !ok {
		return nil, false, err
	}
	raw, err := json.Marshal(creds)
	return raw, true, err
}

// SetCredentials replaces the stored credentials and forgets the current client.
func (a *GistAdapter) SetCredentials(ctx context.Context, raw json.RawMessage) error {
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return fmt.Errorf("%w: gist credentials: %w", domain.ErrValidation, err)
	}
	if err := remote.SaveJSON(ctx, a.store, CredentialsKey, creds); err != nil {
		return err
	}
	a.Reset()
	return nil
}

func (a *GistAdapter) credentials(ctx context.Context) (Credentials, bool) {
	var creds Credentials
	ok, err := remote.LoadJSON(ctx, a.store, CredentialsKey, &creds)
	if err != nil {
		log.Warn().Err(err).Str("adapter", Name).Msg("Failed to read credentials")
		return Credentials{}, false
	}
	return creds, ok && creds.configured()
}

func (a *GistAdapter) IsConfigured(ctx context.Context) bool {
	_, ok := a.credentials(ctx)
	return ok
}

func (a *GistAdapter) service(ctx context.Context) (gistService, error) {
	creds, ok := a.credentials(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: gist credentials are not configured", domain.ErrRemoteUnavailable)
	}

	svc, err := a.init.Get(ctx, func(ctx context.Context) (gistService, error) {
		return a.connect(ctx, creds)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
	}
	return svc, nil
}

func (a *GistAdapter) IsAvailable(ctx context.Context) bool {
	_, err := a.service(ctx)
	if err != nil {
		log.Debug().Err(err).Str("adapter", Name).Msg("Remote not available")
	}
	return err == nil
}

func (a *GistAdapter) IsSignedIn(ctx context.Context) bool {
	if !a.IsAvailable(ctx) {
		return false
	}
	var s session
	ok, err := remote.LoadJSON(ctx, a.store, sessionKey, &s)
	return err == nil && ok
}

// SignIn re-verifies the token and records the session.
func (a *GistAdapter) SignIn(ctx context.Context) error {
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	login, err := svc.Verify(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRemoteAuth, err)
	}
	if err := remote.SaveJSON(ctx, a.store, sessionKey, session{Login: login}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRemoteAuth, err)
	}

	log.Info().Str("adapter", Name).Str("login", login).Msg("Signed in")
	return nil
}

// SignOut forgets the session. The token stays configured.
func (a *GistAdapter) SignOut(ctx context.Context) error {
	if err := a.store.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRemoteAuth, err)
	}
	log.Info().Str("adapter", Name).Msg("Signed out")
	return nil
}

func (a *GistAdapter) signedInService(ctx context.Context) (gistService, error) {
	svc, err := a.service(ctx)
	if err != nil {
		return nil, err
	}
	if !a.IsSignedIn(ctx) {
		return nil, fmt.Errorf("%w: not signed in to %s", domain.ErrRemoteAuth, Name)
	}
	return svc, nil
}

// Load reads the collection from the gist, empty when no gist holds the file.
func (a *GistAdapter) Load(ctx context.Context) (domain.Collection, error) {
	svc, err := a.signedInService(ctx)
	if err != nil {
		return nil, err
	}

	id, found, err := svc.Find(ctx, remote.FileName)
	if err != nil {
		return nil, err
	}
	if !found {
		return domain.Collection{}, nil
	}

	raw, err := svc.Read(ctx, id, remote.FileName)
	if err != nil {
		return nil, err
	}
	return remote.Decode(raw)
}

// Save overwrites the gist file, creating the gist on first save.
func (a *GistAdapter) Save(ctx context.Context, posts domain.Collection) error {
	svc, err := a.signedInService(ctx)
	if err != nil {
		return err
	}

	raw, err := remote.Encode(posts)
	if err != nil {
		return err
	}

	id, found, err := svc.Find(ctx, remote.FileName)
	if err != nil {
		return err
	}
	if !found {
		log.Debug().Str("adapter", Name).Msg("Creating posts gist")
		return svc.Create(ctx, remote.FileName, raw)
	}
	return svc.Edit(ctx, id, remote.FileName, raw)
}

func (a *GistAdapter) Reset() {
	a.init.Reset()
}
