// Package oauth runs the authorization-code flow for remote adapters and keeps
// the resulting token in the local tier.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const tokenKeyPrefix = "oauth_token:"

// CodePrompter sends the user to authURL and returns the authorization code
// the provider hands back for state.
type CodePrompter interface {
	PromptCode(ctx context.Context, authURL, state string) (string, error)
}

// Authenticator signs one adapter in and out.
type Authenticator struct {
	name     string
	config   *oauth2.Config
	store    domain.KeyValueStore
	prompter CodePrompter
}

// NewAuthenticator creates an authenticator whose token is stored under
// "oauth_token:<name>".
func NewAuthenticator(name string, config *oauth2.Config, store domain.KeyValueStore, prompter CodePrompter) *Authenticator {
	return &Authenticator{
		name:     name,
		config:   config,
		store:    store,
		prompter: prompter,
	}
}

// TokenKey is the local key holding the adapter's token.
func TokenKey(name string) string {
	return tokenKeyPrefix + name
}

// Token returns the stored token, if any.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, bool, error) {
	raw, ok, err := a.store.Get(ctx, TokenKey(a.name))
	if err != nil || !ok {
		return nil, false, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		log.Warn().Err(err).Str("adapter", a.name).Msg("Discarding unreadable oauth token")
		return nil, false, nil
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, false, nil
	}
	return &tok, true, nil
}

// SignedIn reports whether a usable token is stored.
func (a *Authenticator) SignedIn(ctx context.Context) bool {
	_, ok, err := a.Token(ctx)
	return err == nil && ok
}

// SignIn keeps an existing session or runs the code flow through the prompter.
func (a *Authenticator) SignIn(ctx context.Context) error {
	if a.SignedIn(ctx) {
		return nil
	}
	if a.prompter == nil {
		return fmt.Errorf("%w: no way to prompt for sign-in", domain.ErrRemoteAuth)
	}

	state := uuid.NewString()
	authURL := a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	code, err := a.prompter.PromptCode(ctx, authURL, state)
	if err != nil {
		return fmt.Errorf("%w: sign-in for %s was not completed: %w", domain.ErrRemoteAuth, a.name, err)
	}

	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: token exchange for %s failed: %w", domain.ErrRemoteAuth, a.name, err)
	}

	if err := a.saveToken(ctx, tok); err != nil {
		return err
	}
	log.Info().Str("adapter", a.name).Msg("Signed in")
	return nil
}

// SignOut forgets the stored token.
func (a *Authenticator) SignOut(ctx context.Context) error {
	if err := a.store.Delete(ctx, TokenKey(a.name)); err != nil {
		return fmt.Errorf("%w: failed to forget token for %s: %w", domain.ErrRemoteAuth, a.name, err)
	}
	log.Info().Str("adapter", a.name).Msg("Signed out")
	return nil
}

// TokenSource returns a source over the stored token that persists refreshed
// tokens back to the store.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, ok, err := a.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteAuth, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is not signed in", domain.ErrRemoteAuth, a.name)
	}

	return &persistingSource{
		auth: a,
		base: a.config.TokenSource(context.WithoutCancel(ctx), tok),
		last: tok.AccessToken,
	}, nil
}

// Client returns an HTTP client authorized with the stored token.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	ts, err := a.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func (a *Authenticator) saveToken(ctx context.Context, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("%w: failed to encode token: %w", domain.ErrStorage, err)
	}
	return a.store.Put(ctx, TokenKey(a.name), raw)
}

type persistingSource struct {
	auth *Authenticator
	base oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %w", domain.ErrRemoteAuth, err)
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := s.auth.saveToken(context.Background(), tok); err != nil {
			log.Warn().Err(err).Str("adapter", s.auth.name).Msg("Failed to persist refreshed token")
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
