package middleware

import (
	"fmt"
	"net/http"

	"github.com/dfryer1193/journal/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandlePanics answers a panicking request with a 500 and logs the panic.
func HandlePanics() gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("%v", recovered)
		}

		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.Error{Error: err.Error()})
	}
}
