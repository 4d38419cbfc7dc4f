package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/storyverse-api/internal/interface/http"
	"github.com/oksasatya/storyverse-api/internal/interface/middleware"
)

// AuthModule wires credential, reset-code and account routes.
// Public: register, login, logout, send-otp, reset-password, google sign-in.
// Guarded: complete-profile, change-password, delete-account, profile.
type AuthModule struct {
	Auth   *handlers.AuthHandler
	User   *handlers.UserHandler
	Guard    gin.HandlerFunc
	Identify gin.HandlerFunc
	Redis    *redis.Client
	Google   bool
}

func NewAuthModule(auth *handlers.AuthHandler, user *handlers.UserHandler, guard, identify gin.HandlerFunc, rdb *redis.Client, google bool) *AuthModule {
	return &AuthModule{Auth: auth, User: user, Guard: guard, Identify: identify, Redis: rdb, Google: google}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	otpLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	g := rg.Group("/auth")
	g.POST("/register", registerLimiter, m.Auth.Register)
	g.POST("/login", loginLimiter, m.Auth.Login)
	g.POST("/logout", m.Identify, m.Auth.Logout)
	g.POST("/send-otp", otpLimiter, m.Auth.SendOTP)
	g.POST("/reset-password", resetLimiter, m.Auth.ResetPassword)

	if m.Google {
		g.GET("/google", m.Auth.GoogleStart)
		g.GET("/google/callback", m.Auth.GoogleCallback)
	}

	auth := g.Group("/")
	auth.Use(m.Guard)
	auth.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/complete-profile", m.User.CompleteProfile)
		auth.POST("/change-password", m.User.ChangePassword)
		auth.DELETE("/delete-account", m.User.DeleteAccount)
		auth.GET("/profile", m.User.Profile)
	}
}
