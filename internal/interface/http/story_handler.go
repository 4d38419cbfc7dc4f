package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/pkg/response"
)

const defaultSearchSize = 10

type StoryHandler struct {
	Svc    *application.StoryService
	Logger *logrus.Logger
}

func NewStoryHandler(svc *application.StoryService, logger *logrus.Logger) *StoryHandler {
	return &StoryHandler{Svc: svc, Logger: logger}
}

// List GET /api/story?category=
func (h *StoryHandler) List(c *gin.Context) {
	stories, err := h.Svc.ListLive(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, stories, "ok", nil)
}

// Search GET /api/story/search?q=&size=
func (h *StoryHandler) Search(c *gin.Context) {
	size := defaultSearchSize
	if raw := strings.TrimSpace(c.Query("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error[any](c, http.StatusBadRequest, "size must be a positive integer", nil)
			return
		}
		size = n
	}
	hits, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "ok", nil)
}

// Add POST /api/story/add (multipart: category, characterName, number, media, profileImage?)
func (h *StoryHandler) Add(c *gin.Context) {
	category := strings.TrimSpace(c.PostForm("category"))
	name := strings.TrimSpace(c.PostForm("characterName"))
	numberRaw := strings.TrimSpace(c.PostForm("number"))
	if category == "" || name == "" || numberRaw == "" {
		response.Error[any](c, http.StatusBadRequest, "all fields required", nil)
		return
	}
	number, err := strconv.Atoi(numberRaw)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "story number must be between 1 and 4", nil)
		return
	}

	media, closeMedia, ok, err := formUpload(c, "media")
	defer closeMedia()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !ok {
		response.Error[any](c, http.StatusBadRequest, "story media required", nil)
		return
	}
	params := application.AddItemUploadParams{Category: category, CharacterName: name, Number: number, Media: media}

	cover, closeCover, ok, err := formUpload(c, "profileImage")
	defer closeCover()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if ok {
		params.Cover = &cover
	}

	item, err := h.Svc.AddItemUpload(c.Request.Context(), params)
	countOp("story_add", err)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, item, "story added successfully", nil)
}

// ToggleLive PUT /api/story/toggle-live/:id
func (h *StoryHandler) ToggleLive(c *gin.Context) {
	live, err := h.Svc.ToggleLive(c.Request.Context(), c.Param("id"))
	countOp("story_toggle", err)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"isLive": live}, "live updated", nil)
}

// UpdateCover PUT /api/story/update-cover/:id (multipart profileImage)
func (h *StoryHandler) UpdateCover(c *gin.Context) {
	cover, closeCover, ok, err := formUpload(c, "profileImage")
	defer closeCover()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !ok {
		response.Error[any](c, http.StatusBadRequest, "image required", nil)
		return
	}
	err = h.Svc.SetCoverUpload(c.Request.Context(), c.Param("id"), cover)
	countOp("story_cover", err)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "cover updated successfully", nil)
}

// Delete DELETE /api/story/:id
func (h *StoryHandler) Delete(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), c.Param("id"))
	countOp("story_delete", err)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "deleted successfully", nil)
}

// Get GET /api/story/:id
func (h *StoryHandler) Get(c *gin.Context) {
	s, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[*entity.Story](c, http.StatusOK, s, "ok", nil)
}
