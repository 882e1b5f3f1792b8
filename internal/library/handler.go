package library

import (
	"errors"
	"net/http"
	"strconv"

	"toonlord/internal/api"
	"toonlord/internal/auth"
	"toonlord/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type updateEntryRequest struct {
	MangaID        int    `json:"manga_id" binding:"required,gt=0"`
	Status         string `json:"status"`
	Progress       *int   `json:"progress" binding:"omitempty,gte=0"`
	CurrentChapter *int   `json:"current_chapter" binding:"omitempty,gte=1"`
	Rating         *int   `json:"rating" binding:"omitempty,gte=0,lte=10"`
}

// @Summary      Add or update a library entry
// @Tags         library
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body library.updateEntryRequest true "Entry"
// @Success      200 {object} library.Entry
// @Router       /library [post]
func (h *Handler) Update(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "manga_id is required"})
		return
	}

	status := req.Status
	if status == "" {
		status = StatusReading
	}
	if !ValidStatus(status) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "status must be Reading, Favorite, Bookmarks or Subscribe"})
		return
	}

	entry, err := h.repo.Upsert(c.Request.Context(), userID, req.MangaID, status, req.Progress, req.CurrentChapter, req.Rating)
	if err != nil {
		logger.Errorf("failed to update library entry for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to update library"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// @Summary      List the library
// @Tags         library
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Tab filter" Enums(Reading, Favorite, Bookmarks, Subscribe)
// @Success      200 {array} library.Entry
// @Router       /library [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	status := c.Query("status")
	if status != "" && !ValidStatus(status) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unknown library status"})
		return
	}

	entries, err := h.repo.List(c.Request.Context(), userID, status)
	if err != nil {
		logger.Errorf("failed to list library for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list library"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// @Summary      Remove a manga from the library
// @Tags         library
// @Produce      json
// @Security     BearerAuth
// @Param        mangaID path int true "Manga ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /library/{mangaID} [delete]
func (h *Handler) Remove(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	mangaID, err := strconv.Atoi(c.Param("mangaID"))
	if err != nil || mangaID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid manga ID"})
		return
	}

	if err := h.repo.Remove(c.Request.Context(), userID, mangaID); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "entry not found"})
			return
		}
		logger.Errorf("failed to remove library entry: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to remove entry"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "removed from library"})
}

type progressRequest struct {
	MangaID       int `json:"manga_id" binding:"required,gt=0"`
	ChapterNumber int `json:"chapter_number" binding:"required,gt=0"`
}

// @Summary      Record reading progress
// @Tags         library
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body library.progressRequest true "Position"
// @Success      200 {object} api.MessageResponse
// @Router       /library/progress [post]
func (h *Handler) RecordProgress(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "manga_id and chapter_number are required"})
		return
	}

	if err := h.repo.RecordProgress(c.Request.Context(), userID, req.MangaID, req.ChapterNumber); err != nil {
		logger.Errorf("failed to record progress for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to record progress"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "progress recorded"})
}
