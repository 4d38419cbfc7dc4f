package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/pkg/response"
)

type CharacterHandler struct {
	Svc    *application.CharacterService
	Logger *logrus.Logger
}

func NewCharacterHandler(svc *application.CharacterService, logger *logrus.Logger) *CharacterHandler {
	return &CharacterHandler{Svc: svc, Logger: logger}
}

// List GET /api/character/:category
func (h *CharacterHandler) List(c *gin.Context) {
	chars, err := h.Svc.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, chars, "ok", nil)
}
