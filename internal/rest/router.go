package rest

import (
	"github.com/dfryer1193/samplestore/internal/middleware"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with the standard middleware chain and every route registered.
func NewRouter(deps Dependencies, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	router.Use(
		middleware.RequestID(),
		middleware.LoggingMiddleware(),
		middleware.Metrics(),
		gin.CustomRecovery(middleware.HandlePanics()),
		middleware.CORS(corsOrigins),
	)

	NewApi(router, deps)
	return router
}
