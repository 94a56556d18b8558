package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// ListGroups groups in creation order
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.Groups.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	utils.SuccessResponse(c, gin.H{"groups": groups}, "")
}

// CreateGroup creates an empty group
func (h *Handler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid request: "+err.Error()))
		return
	}
	group, err := h.Groups.CreateGroup(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"group": group}, "group created", http.StatusCreated)
}

// DeleteGroup deletes a group and its tasks
func (h *Handler) DeleteGroup(c *gin.Context) {
	deleted, err := h.Groups.DeleteGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deletedTasks": deleted}, "group deleted")
}

// ClearGroupTasks deletes every task of a group, keeping the group
func (h *Handler) ClearGroupTasks(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	deleted, err := h.Tasks.ClearGroup(c.Request.Context(), c.Param("id"), who)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deletedTasks": deleted}, "task list cleared")
}
