package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/pkg/response"
)

type BannerHandler struct {
	Svc    *application.BannerService
	Logger *logrus.Logger
}

func NewBannerHandler(svc *application.BannerService, logger *logrus.Logger) *BannerHandler {
	return &BannerHandler{Svc: svc, Logger: logger}
}

// Add POST /api/banner (multipart: category, desktopImage, mobileImage)
func (h *BannerHandler) Add(c *gin.Context) {
	desktop, closeDesktop, okD, err := formUpload(c, "desktopImage")
	defer closeDesktop()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	mobile, closeMobile, okM, err := formUpload(c, "mobileImage")
	defer closeMobile()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !okD || !okM {
		response.Error[any](c, http.StatusBadRequest, "images required", nil)
		return
	}

	e, err := h.Svc.AddEntryUpload(c.Request.Context(), c.PostForm("category"), desktop, mobile)
	countOp("banner_add", err)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, e, "banner added", nil)
}

// List GET /api/banner/:category
func (h *BannerHandler) List(c *gin.Context) {
	entries, err := h.Svc.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, entries, "ok", nil)
}

// Delete DELETE /api/banner/:id
func (h *BannerHandler) Delete(c *gin.Context) {
	err := h.Svc.DeleteEntry(c.Request.Context(), c.Param("id"))
	countOp("banner_delete", err)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "banner deleted", nil)
}
