package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/utils"
)

// GetDashboardStats status, shift and per group statistics
func (h *Handler) GetDashboardStats(c *gin.Context) {
	stats, err := h.Stats.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats, "")
}

// Health liveness probe
func (h *Handler) Health(c *gin.Context) {
	live := 0
	if h.Hub != nil {
		live = h.Hub.ActiveGroups()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"time":        h.now().UnixMilli(),
		"liveGroups":  live,
		"sheetsReady": h.Publisher != nil,
	})
}

// DBStatus document count per collection
func (h *Handler) DBStatus(c *gin.Context) {
	status, err := h.DB.GetDatabaseStatus(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, "database status unavailable: "+err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, status)
}
