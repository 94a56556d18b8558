package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/controllers"
	"github.com/ompro/ompro_end/middleware"
	"github.com/ompro/ompro_end/utils"
)

// RegisterGroupRoutes groups, their task lists, imports and live feed
func RegisterGroupRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	groups := router.Group("/api/groups")
	groups.Use(auth)

	groups.GET("", middleware.PermissionMiddleware(utils.ResourceGroups, utils.ActionRead), h.ListGroups)
	groups.POST("", middleware.PermissionMiddleware(utils.ResourceGroups, utils.ActionCreate), h.CreateGroup)
	groups.DELETE("/:id", middleware.PermissionMiddleware(utils.ResourceGroups, utils.ActionDelete), h.DeleteGroup)

	groups.GET("/:id/tasks", middleware.PermissionMiddleware(utils.ResourceTasks, utils.ActionRead), h.ListGroupTasks)
	groups.GET("/:id/tasks/live", middleware.PermissionMiddleware(utils.ResourceTasks, utils.ActionRead), h.LiveTasks)
	groups.DELETE("/:id/tasks", middleware.PermissionMiddleware(utils.ResourceTasks, utils.ActionDelete), h.ClearGroupTasks)

	groups.POST("/:id/import/preview", middleware.PermissionMiddleware(utils.ResourceTasks, utils.ActionImport), h.PreviewImport)
	groups.POST("/:id/import", middleware.PermissionMiddleware(utils.ResourceTasks, utils.ActionImport), h.ImportTasks)
}
