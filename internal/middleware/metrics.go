package middleware

import (
	"strconv"
	"time"

	"github.com/dfryer1193/samplestore/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency per route template. Requests that
// match no route share the "unmatched" label.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.RecordAPIRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
