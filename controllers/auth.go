package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// Login authenticates by e-mail or user name
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid request: "+err.Error()))
		return
	}

	resp, err := h.Users.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, resp, "login successful")
}

// Me current user profile
func (h *Handler) Me(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	user, err := h.Users.Me(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user}, "")
}

// ChangePassword changes the caller's password
func (h *Handler) ChangePassword(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid request: "+err.Error()))
		return
	}
	if err := h.Users.ChangePassword(c.Request.Context(), who, req); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, nil, "password changed")
}
