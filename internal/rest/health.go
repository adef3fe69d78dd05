package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dfryer1193/samplestore/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, api.Health{Status: "unavailable", Error: "database unreachable"})
			return
		}

		c.JSON(http.StatusOK, api.Health{Status: "ok"})
	}
}
