// Package gdrive keeps the post collection in a single file in the user's
// Google Drive.
package gdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/shared/oauth"
	"github.com/dfryer1193/journal/shared/remote"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	Name = "drive"

	// CredentialsKey is the local key holding Credentials.
	CredentialsKey = "google_drive_credentials"
)

// Credentials identify the Google Cloud OAuth client. ClientSecret is needed
// for the code exchange outside a browser.
type Credentials struct {
	ClientID     string `json:"clientId"`
	APIKey       string `json:"apiKey"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

func (c Credentials) configured() bool {
	return c.ClientID != "" && c.APIKey != ""
}

type authenticator interface {
	SignedIn(ctx context.Context) bool
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	Client(ctx context.Context) (*http.Client, error)
}

// session is what a successful initialization yields.
type session struct {
	auth  authenticator
	files func(ctx context.Context) (fileService, error)
}

var _ domain.RemoteAdapter = (*DriveAdapter)(nil)

// DriveAdapter implements domain.RemoteAdapter over Google Drive.
type DriveAdapter struct {
	store       domain.KeyValueStore
	prompter    oauth.CodePrompter
	redirectURL string

	connect func(ctx context.Context, creds Credentials) (*session, error)
	init    remote.Initializer[*session]
}

// NewDriveAdapter creates an adapter. prompter completes the browser sign-in;
// redirectURL must be registered with the OAuth client.
func NewDriveAdapter(store domain.KeyValueStore, prompter oauth.CodePrompter, redirectURL string) *DriveAdapter {
	a := &DriveAdapter{
		store:       store,
		prompter:    prompter,
		redirectURL: redirectURL,
	}
	a.connect = a.connectDrive
	return a
}

func (a *DriveAdapter) connectDrive(_ context.Context, creds Credentials) (*session, error) {
	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  a.redirectURL,
		Scopes:       []string{drive.DriveFileScope},
		Endpoint:     google.Endpoint,
	}
	auth := oauth.NewAuthenticator(Name, cfg, a.store, a.prompter)

	return &session{
		auth: auth,
		files: func(ctx context.Context) (fileService, error) {
			client, err := auth.Client(ctx)
			if err != nil {
				return nil, err
			}
			svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
			if err != nil {
				return nil, fmt.Errorf("%w: failed to create drive client: %w", domain.ErrRemoteUnavailable, err)
			}
			return &driveFiles{svc: svc}, nil
		},
	}, nil
}

func (a *DriveAdapter) Name() string { return Name }

// Credentials returns the stored credentials as JSON.
func (a *DriveAdapter) Credentials(ctx context.Context) (json.RawMessage, bool, error) {
	var creds Credentials
	ok, err := remote.LoadJSON(ctx, a.store, CredentialsKey, &creds)
	if err != nil || !ok {
		return nil, false, err
	}
	raw, err := json.Marshal(creds)
	return raw, true, err
}

// SetCredentials replaces the stored credentials and forgets the current client.
func (a *DriveAdapter) SetCredentials(ctx context.Context, raw json.RawMessage) error {
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return fmt.Errorf("%w: drive credentials: %w", domain.ErrValidation, err)
	}
	if err := remote.SaveJSON(ctx, a.store, CredentialsKey, creds); err != nil {
		return err
	}
	a.Reset()
	return nil
}

func (a *DriveAdapter) credentials(ctx context.Context) (Credentials, bool) {
	var creds Credentials
	ok, err := remote.LoadJSON(ctx, a.store, CredentialsKey, &creds)
	if err != nil {
		log.Warn().Err(err).Str("adapter", Name).Msg("Failed to read credentials")
		return Credentials{}, false
	}
	return creds, ok && creds.configured()
}

func (a *DriveAdapter) IsConfigured(ctx context.Context) bool {
	_, ok := a.credentials(ctx)
	return ok
}

func (a *DriveAdapter) session(ctx context.Context) (*session, error) {
	creds, ok := a.credentials(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: drive credentials are not configured", domain.ErrRemoteUnavailable)
	}

	s, err := a.init.Get(ctx, func(ctx context.Context) (*session, error) {
		return a.connect(ctx, creds)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
	}
	return s, nil
}

func (a *DriveAdapter) IsAvailable(ctx context.Context) bool {
	_, err := a.session(ctx)
	if err != nil {
		log.Debug().Err(err).Str("adapter", Name).Msg("Remote not available")
	}
	return err == nil
}

func (a *DriveAdapter) IsSignedIn(ctx context.Context) bool {
	s, err := a.session(ctx)
	return err == nil && s.auth.SignedIn(ctx)
}

func (a *DriveAdapter) SignIn(ctx context.Context) error {
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	return s.auth.SignIn(ctx)
}

func (a *DriveAdapter) SignOut(ctx context.Context) error {
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	return s.auth.SignOut(ctx)
}

func (a *DriveAdapter) files(ctx context.Context) (fileService, error) {
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if !s.auth.SignedIn(ctx) {
		return nil, fmt.Errorf("%w: not signed in to %s", domain.ErrRemoteAuth, Name)
	}
	return s.files(ctx)
}

// Load downloads the posts file, empty when it does not exist yet.
func (a *DriveAdapter) Load(ctx context.Context) (domain.Collection, error) {
	files, err := a.files(ctx)
	if err != nil {
		return nil, err
	}

	id, found, err := files.FindByName(ctx, remote.FileName)
	if err != nil {
		return nil, err
	}
	if !found {
		return domain.Collection{}, nil
	}

	raw, err := files.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	return remote.Decode(raw)
}

// Save overwrites the posts file, creating it on first save.
func (a *DriveAdapter) Save(ctx context.Context, posts domain.Collection) error {
	files, err := a.files(ctx)
	if err != nil {
		return err
	}

	raw, err := remote.Encode(posts)
	if err != nil {
		return err
	}

	id, found, err := files.FindByName(ctx, remote.FileName)
	if err != nil {
		return err
	}
	if !found {
		log.Debug().Str("adapter", Name).Msg("Creating posts file")
		return files.Create(ctx, remote.FileName, raw)
	}
	return files.Update(ctx, id, raw)
}

func (a *DriveAdapter) Reset() {
	a.init.Reset()
}
