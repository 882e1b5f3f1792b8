package analytics

import (
	"net/http"

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

type heartbeatRequest struct {
	MangaID       int    `json:"manga_id" binding:"required,gt=0"`
	ChapterNumber int    `json:"chapter_number" binding:"required,gt=0"`
	PageNumber    int    `json:"page_number" binding:"gte=0"`
	Genre         string `json:"genre" binding:"max=64"`
	IsCompleted   bool   `json:"is_completed"`
}

type heartbeatResponse struct {
	SessionID int `json:"session_id"`
}

// @Summary      Record a reading heartbeat
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body analytics.heartbeatRequest true "Heartbeat"
// @Success      200 {object} analytics.heartbeatResponse
// @Router       /analytics/heartbeat [post]
func (h *Handler) SyncHeartbeat(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
		return
	}

	sessionID, err := h.repo.Heartbeat(c.Request.Context(), userID, Heartbeat{
		MangaID:       req.MangaID,
		ChapterNumber: req.ChapterNumber,
		PageNumber:    req.PageNumber,
		Genre:         req.Genre,
		IsCompleted:   req.IsCompleted,
	})
	if err != nil {
		logger.Errorf("failed to record heartbeat for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to record heartbeat"})
		return
	}

	c.JSON(http.StatusOK, heartbeatResponse{SessionID: sessionID})
}

// @Summary      Reading stats dashboard
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} analytics.Overview
// @Router       /analytics/reading [get]
func (h *Handler) ReadingOverview(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	overview, err := h.repo.Overview(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("failed to build reading overview for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load reading stats"})
		return
	}

	c.JSON(http.StatusOK, overview)
}
