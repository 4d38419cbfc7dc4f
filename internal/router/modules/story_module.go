package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/storyverse-api/internal/interface/http"
	"github.com/oksasatya/storyverse-api/internal/interface/middleware"
)

type StoryModule struct {
	Handler *handlers.StoryHandler
	Guard   gin.HandlerFunc
	Admin   gin.HandlerFunc
	Redis   *redis.Client
}

func NewStoryModule(h *handlers.StoryHandler, guard, admin gin.HandlerFunc, rdb *redis.Client) *StoryModule {
	return &StoryModule{Handler: h, Guard: guard, Admin: admin, Redis: rdb}
}

func (m *StoryModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/story")
	g.GET("", m.Handler.List)
	g.GET("/search", middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP(), nil), m.Handler.Search)
	g.GET("/:id", m.Handler.Get)

	admin := g.Group("/")
	admin.Use(m.Guard, m.Admin)
	admin.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		admin.POST("/add", m.Handler.Add)
		admin.PUT("/toggle-live/:id", m.Handler.ToggleLive)
		admin.PUT("/update-cover/:id", m.Handler.UpdateCover)
		admin.DELETE("/:id", m.Handler.Delete)
	}
}
