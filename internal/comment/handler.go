package comment

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

type postCommentRequest struct {
	TargetType string `json:"target_type" binding:"required,oneof=manga chapter"`
	TargetID   int    `json:"target_id" binding:"required,gt=0"`
	Content    string `json:"content" binding:"required,max=2000"`
	ParentID   *int   `json:"parent_id"`
}

// @Summary      Post a comment or reply
// @Tags         comment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body comment.postCommentRequest true "Comment"
// @Success      201 {object} comment.Comment
// @Failure      404 {object} api.ErrorResponse
// @Router       /comments [post]
func (h *Handler) Post(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req postCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "target and content are required"})
		return
	}

	created, err := h.repo.Create(c.Request.Context(), &Comment{
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		UserID:     userID,
		Content:    req.Content,
		ParentID:   req.ParentID,
	})
	if errors.Is(err, ErrCommentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "the comment you are replying to no longer exists"})
		return
	}
	if err != nil {
		logger.Errorf("failed to post comment: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to post comment"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// @Summary      List comments for a manga or chapter
// @Tags         comment
// @Produce      json
// @Param        targetID path int true "Target ID"
// @Param        type query string true "Target type" Enums(manga, chapter)
// @Success      200 {array} comment.Comment
// @Router       /comments/{targetID} [get]
func (h *Handler) List(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("targetID"))
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid target ID"})
		return
	}
	targetType := c.Query("type")
	if targetType != TargetManga && targetType != TargetChapter {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "type must be manga or chapter"})
		return
	}

	comments, err := h.repo.ListByTarget(c.Request.Context(), targetType, targetID)
	if err != nil {
		logger.Errorf("failed to list comments for %s %d: %v", targetType, targetID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list comments"})
		return
	}

	c.JSON(http.StatusOK, comments)
}

type voteRequest struct {
	VoteType string `json:"vote_type" binding:"required,oneof=like dislike"`
}

// @Summary      Vote on a comment
// @Tags         comment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Comment ID"
// @Param        request body comment.voteRequest true "Vote"
// @Success      200 {object} comment.Comment
// @Router       /comments/{id}/vote [post]
func (h *Handler) Vote(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || commentID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid comment ID"})
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "vote_type must be like or dislike"})
		return
	}

	vote := 1
	if req.VoteType == VoteDislike {
		vote = -1
	}

	if err := h.repo.Vote(c.Request.Context(), commentID, userID, vote); err != nil {
		if errors.Is(err, ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "comment not found"})
			return
		}
		logger.Errorf("failed to vote on comment %d: %v", commentID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to record vote"})
		return
	}

	updated, err := h.repo.GetByID(c.Request.Context(), commentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load comment"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete own comment
// @Tags         comment
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Comment ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /comments/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || commentID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid comment ID"})
		return
	}

	err = h.repo.Delete(c.Request.Context(), commentID, userID)
	switch {
	case errors.Is(err, ErrCommentNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "comment not found"})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "only the author can delete this comment"})
	case err != nil:
		logger.Errorf("failed to delete comment %d: %v", commentID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to delete comment"})
	default:
		c.JSON(http.StatusOK, api.MessageResponse{Message: "comment deleted"})
	}
}

type pinRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

// @Summary      Pin or unpin a comment
// @Tags         comment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Comment ID"
// @Param        request body pinRequest true "Pin state"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/comments/{id}/pin [post]
func (h *Handler) Pin(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || commentID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid comment ID"})
		return
	}

	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
		return
	}

	err = h.repo.SetPinned(c.Request.Context(), commentID, *req.Pinned)
	switch {
	case errors.Is(err, ErrCommentNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "comment not found"})
	case err != nil:
		logger.Errorf("failed to pin comment %d: %v", commentID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to update comment"})
	default:
		c.JSON(http.StatusOK, api.MessageResponse{Message: "comment updated"})
	}
}
