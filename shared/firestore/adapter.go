// Package firestore keeps the post collection in the signed-in user's
// Firestore document, users/{uid}, under the posts field.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/shared/oauth"
	"github.com/dfryer1193/journal/shared/remote"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
)

const (
	Name = "firestore"

	// ConfigKey is the local key holding Config.
	ConfigKey = "firebase_config"

	datastoreScope = "https://www.googleapis.com/auth/datastore"
)

// Config is the web app configuration of a Firebase project.
type Config struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	ProjectID         string `json:"projectId"`
	StorageBucket     string `json:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId"`
	AppID             string `json:"appId"`
}

func (c Config) configured() bool {
	return c.APIKey != "" && c.ProjectID != ""
}

// WithDefaults fills the domain and bucket a project gets when nothing else
// was set up.
func (c Config) WithDefaults() Config {
	if c.ProjectID == "" {
		return c
	}
	if c.AuthDomain == "" {
		c.AuthDomain = c.ProjectID + ".firebaseapp.com"
	}
	if c.StorageBucket == "" {
		c.StorageBucket = c.ProjectID + ".appspot.com"
	}
	return c
}

// OAuthClient is the Google OAuth client used to sign the user in.
type OAuthClient struct {
	ID          string
	Secret      string
	RedirectURL string
}

type authenticator interface {
	SignedIn(ctx context.Context) bool
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

type session struct {
	auth authenticator
	open func(ctx context.Context, ts oauth2.TokenSource) (documentStore, error)
}

var _ domain.RemoteAdapter = (*FirestoreAdapter)(nil)

// FirestoreAdapter implements domain.RemoteAdapter on a Firestore document.
type FirestoreAdapter struct {
	store    domain.KeyValueStore
	prompter oauth.CodePrompter
	client   OAuthClient

	connect func(ctx context.Context, cfg Config) (*session, error)
	init    remote.Initializer[*session]
}

func NewFirestoreAdapter(store domain.KeyValueStore, prompter oauth.CodePrompter, client OAuthClient) *FirestoreAdapter {
	a := &FirestoreAdapter{
		store:    store,
		prompter: prompter,
		client:   client,
	}
	a.connect = a.connectFirestore
	return a
}

func (a *FirestoreAdapter) connectFirestore(_ context.Context, cfg Config) (*session, error) {
	if a.client.ID == "" {
		return nil, fmt.Errorf("no oauth client configured for %s", Name)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     a.client.ID,
		ClientSecret: a.client.Secret,
		RedirectURL:  a.client.RedirectURL,
		Scopes:       []string{datastoreScope, oauth2api.UserinfoProfileScope},
		Endpoint:     google.Endpoint,
	}

	return &session{
		auth: oauth.NewAuthenticator(Name, oauthCfg, a.store, a.prompter),
		open: func(ctx context.Context, ts oauth2.TokenSource) (documentStore, error) {
			return openUserDocument(ctx, cfg.ProjectID, ts)
		},
	}, nil
}

func (a *FirestoreAdapter) Name() string { return Name }

// Credentials returns the stored config as JSON.
func (a *FirestoreAdapter) Credentials(ctx context.Context) (json.RawMessage, bool, error) {
	var cfg Config
	ok, err := remote.LoadJSON(ctx, a.store, ConfigKey, &cfg)
	if err != nil || !ok {
		return nil, false, err
	}
	raw, err := json.Marshal(cfg)
	return raw, true, err
}

// SetCredentials stores the config with defaults applied and forgets the
// current client.
func (a *FirestoreAdapter) SetCredentials(ctx context.Context, raw json.RawMessage) error {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("%w: firebase config: %w", domain.ErrValidation, err)
	}
	if err := remote.SaveJSON(ctx, a.store, ConfigKey, cfg.WithDefaults()); err != nil {
		return err
	}
	a.Reset()
	return nil
}

func (a *FirestoreAdapter) config(ctx context.Context) (Config, bool) {
	var cfg Config
	ok, err := remote.LoadJSON(ctx, a.store, ConfigKey, &cfg)
	if err != nil {
		log.Warn().Err(err).Str("adapter", Name).Msg("Failed to read config")
		return Config{}, false
	}
	return cfg, ok && cfg.configured()
}

func (a *FirestoreAdapter) IsConfigured(ctx context.Context) bool {
	_, ok := a.config(ctx)
	return ok
}

func (a *FirestoreAdapter) session(ctx context.Context) (*session, error) {
	cfg, ok := a.config(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: firebase is not configured", domain.ErrRemoteUnavailable)
	}

	s, err := a.init.Get(ctx, func(ctx context.Context) (*session, error) {
		return a.connect(ctx, cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
	}
	return s, nil
}

func (a *FirestoreAdapter) IsAvailable(ctx context.Context) bool {
	_, err := a.session(ctx)
	if err != nil {
		log.Debug().Err(err).Str("adapter", Name).Msg("Remote not available")
	}
	return err == nil
}

func (a *FirestoreAdapter) IsSignedIn(ctx context.Context) bool {
	s, err := a.session(ctx)
	return err == nil && s.auth.SignedIn(ctx)
}

func (a *FirestoreAdapter) SignIn(ctx context.Context) error {
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	return s.auth.SignIn(ctx)
}

func (a *FirestoreAdapter) SignOut(ctx context.Context) error {
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	return s.auth.SignOut(ctx)
}

func (a *FirestoreAdapter) document(ctx context.Context) (documentStore, error) {
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if !s.auth.SignedIn(ctx) {
		return nil, fmt.Errorf("%w: not signed in to %s", domain.ErrRemoteAuth, Name)
	}

	ts, err := s.auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, ts)
}

// Load reads the posts field, empty when the document or field is missing.
func (a *FirestoreAdapter) Load(ctx context.Context) (domain.Collection, error) {
	doc, err := a.document(ctx)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	posts, found, err := doc.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return domain.Collection{}, nil
	}
	return posts, nil
}

// Save merges the collection into the posts field, leaving other fields of
// the document alone.
func (a *FirestoreAdapter) Save(ctx context.Context, posts domain.Collection) error {
	doc, err := a.document(ctx)
	if err != nil {
		return err
	}
	defer doc.Close()

	return doc.Merge(ctx, posts)
}

func (a *FirestoreAdapter) Reset() {
	a.init.Reset()
}
