package report

import (
	"errors"
	"fmt"
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

type createReportRequest struct {
	TargetType    string `json:"target_type" binding:"required,oneof=manga comment chapter"`
	TargetID      int    `json:"target_id" binding:"required,gt=0"`
	TargetUserID  int    `json:"target_user_id" binding:"required,gt=0"`
	MangaID       *int   `json:"manga_id"`
	ChapterNumber *int   `json:"chapter_number"`
	Reason        string `json:"reason" binding:"required,max=32"`
	Details       string `json:"details" binding:"max=2000"`
}

// @Summary      Report content
// @Tags         report
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body report.createReportRequest true "Report"
// @Success      201 {object} report.Report
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /reports [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
		return
	}

	created, err := h.repo.Create(c.Request.Context(), &Report{
		ReporterID:    userID,
		TargetUserID:  req.TargetUserID,
		MangaID:       req.MangaID,
		TargetType:    req.TargetType,
		TargetID:      req.TargetID,
		ChapterNumber: req.ChapterNumber,
		Reason:        req.Reason,
		Details:       req.Details,
	})
	switch {
	case errors.Is(err, ErrSelfReport):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "you cannot report yourself"})
	case errors.Is(err, ErrTargetNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: fmt.Sprintf("%s not found", req.TargetType)})
	case errors.Is(err, ErrAlreadyFiled):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "you have already reported this content"})
	case err != nil:
		logger.Errorf("failed to file report by user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to file report"})
	default:
		c.JSON(http.StatusCreated, created)
	}
}

// @Summary      List reports
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter by status" Enums(pending, investigating, resolved, dismissed)
// @Success      200 {array} report.AdminView
// @Router       /admin/reports [get]
func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", StatusPending, StatusInvestigating, StatusResolved, StatusDismissed:
	default:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid status filter"})
		return
	}

	views, err := h.repo.List(c.Request.Context(), status)
	if err != nil {
		logger.Errorf("failed to list reports: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, views)
}

type actionRequest struct {
	Action    string `json:"action" binding:"required,oneof=investigating resolved dismissed"`
	AdminNote string `json:"admin_note" binding:"max=2000"`
}

// @Summary      Act on a report
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Report ID"
// @Param        request body report.actionRequest true "Action"
// @Success      200 {object} report.Report
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/reports/{id} [post]
func (h *Handler) Act(c *gin.Context) {
	reportID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reportID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid report ID"})
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
		return
	}

	updated, err := h.repo.SetStatus(c.Request.Context(), reportID, req.Action, req.AdminNote)
	switch {
	case errors.Is(err, ErrReportNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "report not found"})
	case err != nil:
		logger.Errorf("failed to update report %d: %v", reportID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to update report"})
	default:
		c.JSON(http.StatusOK, updated)
	}
}

type purgeResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// @Summary      Delete processed reports
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} report.purgeResponse
// @Router       /admin/reports [delete]
func (h *Handler) Purge(c *gin.Context) {
	count, err := h.repo.PurgeProcessed(c.Request.Context())
	if err != nil {
		logger.Errorf("failed to purge reports: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to purge reports"})
		return
	}

	c.JSON(http.StatusOK, purgeResponse{
		Message: fmt.Sprintf("%d processed reports removed", count),
		Count:   count,
	})
}
