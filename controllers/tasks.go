package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// ListGroupTasks tasks of one group filtered by search, status and shift
func (h *Handler) ListGroupTasks(c *gin.Context) {
	groupID := c.Param("id")
	if _, err := utils.ParseObjectID(groupID, "group"); err != nil {
		utils.HandleError(c, err)
		return
	}

	var q models.TaskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid query: "+err.Error()))
		return
	}
	q.GroupID = groupID

	tasks, err := h.Tasks.ListTasks(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"tasks": tasks, "total": len(tasks)}, "")
}

// GetTask one task with its history
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.Tasks.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"task": task}, "")
}

// UpdateTaskStatus records a status change
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid request: "+err.Error()))
		return
	}

	task, err := h.Tasks.UpdateStatus(c.Request.Context(), c.Param("id"), req, who)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"task": task}, "status updated")
}

// DeleteTask removes one task
func (h *Handler) DeleteTask(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	if err := h.Tasks.DeleteTask(c.Request.Context(), c.Param("id"), who); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, nil, "task deleted")
}
