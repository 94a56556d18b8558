package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/controllers"
	"github.com/ompro/ompro_end/middleware"
	"github.com/ompro/ompro_end/utils"
)

// RegisterReportRoutes report list and exports
func RegisterReportRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	reports := router.Group("/api/reports")
	reports.Use(auth)

	reports.GET("/tasks", middleware.PermissionMiddleware(utils.ResourceReports, utils.ActionRead), h.ReportTasks)

	export := middleware.PermissionMiddleware(utils.ResourceReports, utils.ActionExport)
	reports.GET("/export.xlsx", export, h.ExportXLSX)
	reports.GET("/export.pdf", export, h.ExportPDF)
	reports.POST("/export/sheets", export, h.ExportSheets)
}
