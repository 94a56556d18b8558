package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/controllers"
	"github.com/ompro/ompro_end/middleware"
)

// RegisterRoutes registers every API route
func RegisterRoutes(router *gin.Engine, h *controllers.Handler, tokens middleware.TokenParser) {
	auth := middleware.AuthMiddleware(tokens, h.Users)

	RegisterAuthRoutes(router, h, auth)
	RegisterUserRoutes(router, h, auth)
	RegisterGroupRoutes(router, h, auth)
	RegisterTaskRoutes(router, h, auth)
	RegisterReportRoutes(router, h, auth)
	RegisterDashboardStatsRoutes(router, h, auth)

	router.GET("/api/health", h.Health)
	router.GET("/api/db-status", h.DBStatus)
}
