package main

import (
	"fmt"

	"github.com/dfryer1193/journal/blog/application"
	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/blog/persistence"
	"github.com/dfryer1193/journal/internal/config"
	"github.com/dfryer1193/journal/shared/db"
	"github.com/dfryer1193/journal/shared/db/sqlite"
	"github.com/dfryer1193/journal/shared/firestore"
	"github.com/dfryer1193/journal/shared/gdrive"
	"github.com/dfryer1193/journal/shared/github"
	"github.com/dfryer1193/journal/shared/oauth"
	"github.com/rs/zerolog/log"
)

// app is the wired object graph every command runs against.
type app struct {
	database db.Database
	local    domain.LocalStore
	remotes  map[string]application.CredentialedRemote
	sync     *application.SyncService
	transfer *application.TransferService
}

func openApp(cfg config.Config, prompter oauth.CodePrompter) (*app, error) {
	var database db.Database = sqlite.NewSQLiteDB(cfg.SQLite())
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	local := persistence.NewLocalStore(database.DB())

	drive := gdrive.NewDriveAdapter(local, prompter, cfg.OAuth.RedirectURL)
	docs := firestore.NewFirestoreAdapter(local, prompter, firestore.OAuthClient{
		ID:          cfg.OAuth.ClientID,
		Secret:      cfg.OAuth.ClientSecret,
		RedirectURL: cfg.OAuth.RedirectURL,
	})
	gist := github.NewGistAdapter(local)

	remotes := map[string]application.CredentialedRemote{
		drive.Name(): drive,
		docs.Name():  docs,
		gist.Name():  gist,
	}

	var remote domain.RemoteAdapter
	switch cfg.Remote {
	case config.RemoteAuto:
		remote = application.SelectRemote(drive, docs, gist)
	case config.RemoteDrive, config.RemoteFirestore, config.RemoteGist:
		remote = remotes[string(cfg.Remote)]
	}

	svc := application.NewSyncService(local, remote)
	log.Debug().Str("db", database.Path()).Str("remote", string(cfg.Remote)).Msg("Opened journal")

	return &app{
		database: database,
		local:    local,
		remotes:  remotes,
		sync:     svc,
		transfer: application.NewTransferService(local, svc),
	}, nil
}

// Close lets pending remote saves finish, then releases the database.
func (a *app) Close() {
	a.sync.Wait()
	if err := a.sync.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to gracefully close sync service")
	}
	if err := a.database.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}
}
