package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/storyverse-api/internal/interface/http"
	"github.com/oksasatya/storyverse-api/internal/interface/middleware"
)

type BannerModule struct {
	Handler *handlers.BannerHandler
	Guard   gin.HandlerFunc
	Admin   gin.HandlerFunc
	Redis   *redis.Client
}

func NewBannerModule(h *handlers.BannerHandler, guard, admin gin.HandlerFunc, rdb *redis.Client) *BannerModule {
	return &BannerModule{Handler: h, Guard: guard, Admin: admin, Redis: rdb}
}

func (m *BannerModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/banner")
	g.GET("/:category", m.Handler.List)

	admin := g.Group("")
	admin.Use(m.Guard, m.Admin)
	admin.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		admin.POST("", m.Handler.Add)
		admin.DELETE("/:id", m.Handler.Delete)
	}
}
