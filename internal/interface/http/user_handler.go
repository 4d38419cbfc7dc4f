package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/interface/middleware"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
	"github.com/oksasatya/storyverse-api/pkg/response"
)

// UserHandler serves the authenticated account endpoints.
type UserHandler struct {
	Svc     *application.AccountService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewUserHandler(svc *application.AccountService, cookies *helpers.Manager, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Cookies: cookies, Logger: logger}
}

type completeProfileRequest struct {
	Nickname         *string `json:"nickname"`
	Gender           *string `json:"gender" binding:"omitempty,gender"`
	IsAdultConfirmed *bool   `json:"isAdultConfirmed"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func currentID(c *gin.Context) string { return c.GetString(middleware.CtxUserIDKey) }

// CompleteProfile POST /api/auth/complete-profile
func (h *UserHandler) CompleteProfile(c *gin.Context) {
	var req completeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in := application.ProfileInput{Nickname: req.Nickname, IsAdultConfirmed: req.IsAdultConfirmed}
	if req.Gender != nil {
		g := entity.Gender(*req.Gender)
		in.Gender = &g
	}
	acc, err := h.Svc.CompleteProfile(c.Request.Context(), currentID(c), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": acc.Summary()}, "profile updated", nil)
}

// ChangePassword POST /api/auth/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), currentID(c), req.OldPassword, req.NewPassword); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password updated", nil)
}

// DeleteAccount DELETE /api/auth/delete-account
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.Svc.DeleteAccount(c.Request.Context(), currentID(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if h.Cookies != nil {
		h.Cookies.Clear(c)
	}
	response.Success[any](c, http.StatusOK, nil, "account deleted", nil)
}

// Profile GET /api/auth/profile
func (h *UserHandler) Profile(c *gin.Context) {
	acc := middleware.CurrentAccount(c)
	if acc == nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, acc.Summary(), "ok", nil)
}
