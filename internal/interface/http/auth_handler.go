package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/internal/interface/middleware"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
	"github.com/oksasatya/storyverse-api/pkg/response"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type AuthHandler struct {
	Svc         *application.AccountService
	Identity    application.IdentityResolver
	Cookies     *helpers.Manager
	FrontendURL string
	Logger      *logrus.Logger
}

func NewAuthHandler(svc *application.AccountService, identity application.IdentityResolver, cookies *helpers.Manager, frontendURL string, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Identity: identity, Cookies: cookies, FrontendURL: strings.TrimRight(frontendURL, "/"), Logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func requestMeta(c *gin.Context) application.RequestMeta {
	return application.RequestMeta{IP: middleware.ClientIP(c), UserAgent: c.GetHeader("User-Agent")}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	id, err := h.Svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": id}, "registered successfully", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	sess, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if h.Cookies != nil {
		h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	}
	response.Success(c, http.StatusOK, sess, "login successful", nil)
}

type logoutRequest struct {
	Email string `json:"email"`
}

// Logout POST /api/auth/logout. Always 200, so it reveals nothing about emails.
// Only the session presented with the request is ended; a body email naming a
// different account is ignored.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if acc := middleware.CurrentAccount(c); acc != nil && (email == "" || strings.EqualFold(email, acc.Email)) {
		if err := h.Svc.Logout(c.Request.Context(), acc.ID); err != nil {
			writeError(c, h.Logger, err)
			return
		}
	}
	if h.Cookies != nil {
		h.Cookies.Clear(c)
	}
	response.Success[any](c, http.StatusOK, nil, "logged out successfully", nil)
}

// SendOTP POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Svc.SendResetCode(c.Request.Context(), req.Email, requestMeta(c)); err != nil {
		// unknown emails are a client error on this route
		if errs.IsKind(err, errs.KindNotFound) {
			response.Error[any](c, http.StatusBadRequest, errs.Message(err), nil)
			return
		}
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "otp sent to your email", nil)
}

// ResetPassword POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Svc.ConsumeResetCode(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password reset successful", nil)
}

func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GoogleStart GET /api/auth/google
func (h *AuthHandler) GoogleStart(c *gin.Context) {
	state, err := newState()
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}
	h.Cookies.SetState(c, oauthStateCookie, state, oauthStateTTL)
	c.Redirect(http.StatusFound, h.Identity.AuthCodeURL(state))
}

// GoogleCallback GET /api/auth/google/callback. Redirects to the frontend with
// the session token, or to the login page with an error flag.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	h.Cookies.Clear(c, oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.Redirect(http.StatusFound, h.FrontendURL+"/login?error=invalid_state")
		return
	}

	ident, err := h.Identity.Resolve(c.Request.Context(), c.Query("code"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("google sign-in failed")
		}
		c.Redirect(http.StatusFound, h.FrontendURL+"/login?error=google_failed")
		return
	}
	sess, err := h.Svc.LoginWithIdentity(c.Request.Context(), ident, requestMeta(c))
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("google login failed")
		}
		c.Redirect(http.StatusFound, h.FrontendURL+"/login?error=google_failed")
		return
	}

	user, _ := json.Marshal(sess.Account)
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	q := url.Values{"token": {sess.Token}, "user": {string(user)}}
	c.Redirect(http.StatusFound, h.FrontendURL+"/google-success?"+q.Encode())
}
