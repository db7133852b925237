package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/journal/blog/application"
	"github.com/dfryer1193/journal/internal/config"
	"github.com/dfryer1193/journal/internal/middleware"
	"github.com/dfryer1193/journal/internal/rest"
	"github.com/dfryer1193/journal/shared/oauth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(cfg func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg())
		},
	}
}

func newRouter(a *app, callbacks *oauth.CallbackPrompter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(r, rest.Deps{
		Sync:        a.sync,
		Transfer:    a.transfer,
		Renderer:    application.NewMarkdownRenderer(),
		Credentials: a.remotes,
		Callbacks:   callbacks,
	})
	return r
}

// newServer builds a server whose request contexts are cancelled as soon as
// Shutdown starts, so open event streams end instead of holding it up.
func newServer(addr string, handler http.Handler) *http.Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}

func runServe(cfg config.Config) error {
	callbacks := oauth.NewCallbackPrompter()
	a, err := openApp(cfg, callbacks)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := newServer(cfg.Addr, newRouter(a, callbacks))

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Failed to start server")
			return err
		}
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
