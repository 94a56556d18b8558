package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/controllers"
)

// RegisterAuthRoutes login and own account routes
func RegisterAuthRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	group := router.Group("/api/auth")

	group.POST("/login", h.Login)
	group.GET("/me", auth, h.Me)
	group.POST("/change-password", auth, h.ChangePassword)
}
