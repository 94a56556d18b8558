package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/controllers"
	"github.com/ompro/ompro_end/middleware"
	"github.com/ompro/ompro_end/utils"
)

// RegisterUserRoutes account management (managers only)
func RegisterUserRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	users := router.Group("/api/users")
	users.Use(auth)

	users.GET("", middleware.PermissionMiddleware(utils.ResourceUsers, utils.ActionRead), h.ListUsers)
	users.POST("", middleware.PermissionMiddleware(utils.ResourceUsers, utils.ActionCreate), h.CreateUser)
	users.DELETE("/:id", middleware.PermissionMiddleware(utils.ResourceUsers, utils.ActionDelete), h.DeleteUser)
}
