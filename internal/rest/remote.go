package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dfryer1193/journal/api"
	"github.com/dfryer1193/journal/blog/application"
	"github.com/dfryer1193/journal/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// signInTimeout bounds how long a sign-in waits for the browser redirect.
const signInTimeout = 5 * time.Minute

func (a *Api) remoteName() string {
	if r := a.sync.Remote(); r != nil {
		return r.Name()
	}
	return ""
}

func (a *Api) remoteStatus(ctx context.Context) api.RemoteStatus {
	return api.RemoteStatus{
		Adapter: a.remoteName(),
		Status:  a.sync.RemoteStatus(ctx),
	}
}

func (a *Api) GetRemoteStatus(c *gin.Context) {
	c.JSON(http.StatusOK, a.remoteStatus(c.Request.Context()))
}

// SignIn starts signing in to the remote. When the provider needs the user
// to authorize in a browser it answers 202 with the URL to open, and the
// sign-in finishes when the provider redirects to the callback.
func (a *Api) SignIn(c *gin.Context) {
	if !a.signingIn.CompareAndSwap(false, true) {
		c.AbortWithStatusJSON(http.StatusConflict, api.Error{Error: "sign-in already in progress"})
		return
	}

	var urls <-chan string
	if a.callbacks != nil {
		urls = a.callbacks.AuthURLs()
		select {
		case <-urls:
		default:
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), signInTimeout)
	done := make(chan error, 1)
	go func() {
		defer a.signingIn.Store(false)
		defer cancel()

		err := a.sync.SignIn(ctx)
		if err != nil {
			log.Warn().Err(err).Str("remote", a.remoteName()).Msg("Remote sign-in failed")
		} else {
			log.Info().Str("remote", a.remoteName()).Msg("Signed in to remote")
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, api.SignInResponse{Status: a.sync.RemoteStatus(c.Request.Context())})
	case authURL := <-urls:
		c.JSON(http.StatusAccepted, api.SignInResponse{Status: domain.RemoteAvailableSignedOut, AuthURL: authURL})
	case <-c.Request.Context().Done():
	}
}

// OAuthCallback receives the provider redirect and hands the code to the
// waiting sign-in.
func (a *Api) OAuthCallback(c *gin.Context) {
	if a.callbacks == nil {
		writeError(c, fmt.Errorf("%w: no sign-in is waiting", domain.ErrNotFound))
		return
	}
	if reason := c.Query("error"); reason != "" {
		writeError(c, fmt.Errorf("%w: %s", domain.ErrRemoteAuth, reason))
		return
	}

	if err := a.callbacks.Deliver(c.Query("state"), c.Query("code")); err != nil {
		writeError(c, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		return
	}
	c.String(http.StatusOK, "Signed in. You can close this window.")
}

func (a *Api) SignOut(c *gin.Context) {
	if err := a.sync.SignOut(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.remoteStatus(c.Request.Context()))
}

func (a *Api) credentialedRemote(c *gin.Context) (application.CredentialedRemote, bool) {
	name := c.Param("adapter")
	r, ok := a.credentials[name]
	if !ok {
		writeError(c, fmt.Errorf("%w: remote %q", domain.ErrNotFound, name))
		return nil, false
	}
	return r, true
}

func (a *Api) GetCredentials(c *gin.Context) {
	r, ok := a.credentialedRemote(c)
	if !ok {
		return
	}

	raw, found, err := r.Credentials(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		writeError(c, fmt.Errorf("%w: no credentials saved for %q", domain.ErrNotFound, r.Name()))
		return
	}
	c.Data(http.StatusOK, gin.MIMEJSON, raw)
}

// PutCredentials saves an adapter's credentials and reports the remote
// status they lead to.
func (a *Api) PutCredentials(c *gin.Context) {
	r, ok := a.credentialedRemote(c)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		return
	}
	if err := r.SetCredentials(c.Request.Context(), raw); err != nil {
		writeError(c, err)
		return
	}

	log.Info().Str("remote", r.Name()).Msg("Saved remote credentials")
	c.JSON(http.StatusOK, a.remoteStatus(c.Request.Context()))
}

// TestRemote retries the remote's initialization.
func (a *Api) TestRemote(c *gin.Context) {
	status := a.sync.TestRemote(c.Request.Context())
	c.JSON(http.StatusOK, api.RemoteStatus{Adapter: a.remoteName(), Status: status})
}
