package rest

import (
	"io"
	"net/http"

	"github.com/dfryer1193/journal/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const eventBuffer = 16

// StreamEvents streams collection changes as server-sent events named after
// the change kind. Events are not replayed; a client that falls behind
// loses events.
func (a *Api) StreamEvents(c *gin.Context) {
	events := make(chan domain.ChangeEvent, eventBuffer)
	unsubscribe := a.sync.Subscribe(func(evt domain.ChangeEvent) {
		select {
		case events <- evt:
		default:
			log.Warn().Str("kind", string(evt.Kind)).Msg("Dropping change event for slow client")
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case evt := <-events:
			c.SSEvent(string(evt.Kind), evt)
			return true
		}
	})
}
