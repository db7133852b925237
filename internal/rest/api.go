package rest

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dfryer1193/journal/api"
	"github.com/dfryer1193/journal/blog/application"
	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/shared/oauth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Deps are the services the HTTP API is served from. Credentials and
// Callbacks are optional.
type Deps struct {
	Sync        *application.SyncService
	Transfer    *application.TransferService
	Renderer    application.PostRenderer
	Credentials map[string]application.CredentialedRemote
	Callbacks   *oauth.CallbackPrompter
}

type Api struct {
	sync        *application.SyncService
	transfer    *application.TransferService
	renderer    application.PostRenderer
	credentials map[string]application.CredentialedRemote
	callbacks   *oauth.CallbackPrompter
	now         func() time.Time

	signingIn atomic.Bool
}

func NewApi(router *gin.Engine, deps Deps) *Api {
	a := &Api{
		sync:        deps.Sync,
		transfer:    deps.Transfer,
		renderer:    deps.Renderer,
		credentials: deps.Credentials,
		callbacks:   deps.Callbacks,
		now:         time.Now,
	}

	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", a.GetPosts)
		postsV1.POST("/", a.AddPost)
		postsV1.DELETE("/", a.ClearPosts)
		postsV1.GET("/:slug", a.GetPost)
		postsV1.GET("/:slug/html", a.GetPostHTML)
	}

	transferV1 := router.Group("transfer/v1")
	{
		transferV1.GET("/export", a.ExportPosts)
		transferV1.POST("/import", a.ImportPosts)
	}

	remoteV1 := router.Group("remote/v1")
	{
		remoteV1.GET("/status", a.GetRemoteStatus)
		remoteV1.POST("/signin", a.SignIn)
		remoteV1.POST("/signout", a.SignOut)
		remoteV1.GET("/oauth/callback", a.OAuthCallback)
		remoteV1.GET("/credentials/:adapter", a.GetCredentials)
		remoteV1.PUT("/credentials/:adapter", a.PutCredentials)
		remoteV1.POST("/test", a.TestRemote)
	}

	eventsV1 := router.Group("events/v1")
	{
		eventsV1.GET("/", a.StreamEvents)
	}

	return a
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRemoteAuth):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRemoteSync):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, api.Error{Error: err.Error()})
}
