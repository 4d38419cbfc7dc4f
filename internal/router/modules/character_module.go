package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/storyverse-api/internal/interface/http"
)

type CharacterModule struct {
	Handler *handlers.CharacterHandler
}

func NewCharacterModule(h *handlers.CharacterHandler) *CharacterModule {
	return &CharacterModule{Handler: h}
}

func (m *CharacterModule) Register(rg *gin.RouterGroup) {
	rg.GET("/character/:category", m.Handler.List)
}
