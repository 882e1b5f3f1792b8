package notification

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

type markReadRequest struct {
	IDs []int `json:"ids"`
}

type listResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
}

// @Summary      List notifications
// @Description  Returns the caller's notification feed, newest first
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Filter by category (reader, creator, system)"
// @Param        unread query bool false "Only unread notifications"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200 {object} listResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /notifications [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	var query struct {
		Category string `form:"category" binding:"omitempty,oneof=reader creator system"`
		Unread   bool   `form:"unread"`
		Limit    int    `form:"limit"`
		Offset   int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	items, err := h.repo.ListByUser(c.Request.Context(), userID, query.Category, query.Unread, query.Limit, query.Offset)
	if err != nil {
		logger.Errorf("list notifications for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load notifications"})
		return
	}

	unread, err := h.repo.CountUnread(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("count unread for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, listResponse{Notifications: items, UnreadCount: unread})
}

// @Summary      Mark notifications read
// @Description  Marks the given notification IDs as read, or all of them when no IDs are sent
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body markReadRequest false "Notification IDs"
// @Success      200 {object} api.MessageResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /notifications/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req markReadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
			return
		}
	}

	if _, err := h.repo.MarkRead(c.Request.Context(), userID, req.IDs); err != nil {
		logger.Errorf("mark notifications read for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "notifications marked read"})
}
