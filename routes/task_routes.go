package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/controllers"
	"github.com/ompro/ompro_end/middleware"
	"github.com/ompro/ompro_end/utils"
)

// RegisterTaskRoutes single task routes
func RegisterTaskRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	tasks := router.Group("/api/tasks")
	tasks.Use(auth)

	tasks.GET("/:id", middleware.PermissionMiddleware(utils.ResourceTasks, utils.ActionRead), h.GetTask)
	tasks.PUT("/:id/status", middleware.PermissionMiddleware(utils.ResourceTasks, utils.ActionUpdate), h.UpdateTaskStatus)
	tasks.DELETE("/:id", middleware.PermissionMiddleware(utils.ResourceTasks, utils.ActionDelete), h.DeleteTask)
}
