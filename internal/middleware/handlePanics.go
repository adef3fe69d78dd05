package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/dfryer1193/samplestore/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func HandlePanics() gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		zerolog.Ctx(c.Request.Context()).Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Bytes("stack", debug.Stack()).
			Msg("Recovered from panic")

		c.AbortWithStatusJSON(http.StatusInternalServerError, api.Error{
			Error: "Internal server error",
			Code:  api.CodeInternal,
		})
	}
}
