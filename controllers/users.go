package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// ListUsers every account, password hashes omitted
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if users == nil {
		users = []models.UserProfile{}
	}
	utils.SuccessResponse(c, gin.H{"users": users}, "")
}

// CreateUser registers an account
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid request: "+err.Error()))
		return
	}
	user, err := h.Users.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user}, "user created", http.StatusCreated)
}

// DeleteUser removes an account other than the caller's
func (h *Handler) DeleteUser(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	if err := h.Users.DeleteUser(c.Request.Context(), c.Param("id"), who); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, nil, "user deleted")
}
