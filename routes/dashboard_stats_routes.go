package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/controllers"
	"github.com/ompro/ompro_end/middleware"
	"github.com/ompro/ompro_end/utils"
)

// RegisterDashboardStatsRoutes dashboard statistics
func RegisterDashboardStatsRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	router.GET("/api/dashboard-stats", auth, middleware.PermissionMiddleware(utils.ResourceStats, utils.ActionRead), h.GetDashboardStats)
}
