package premium

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

// Notifier delivers contract updates to the creator's activity feed.
type Notifier interface {
	Notify(userID int, kind, message string, mangaID *int)
}

type Handler struct {
	repo     *Repository
	notifier Notifier
}

func NewHandler(repo *Repository, notifier Notifier) *Handler {
	return &Handler{repo: repo, notifier: notifier}
}

// @Summary      Apply to make a series premium
// @Tags         creator
// @Produce      json
// @Security     BearerAuth
// @Param        mangaID path int true "Manga ID"
// @Success      201 {object} premium.Request
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /creator/manga/{mangaID}/premium-request [post]
func (h *Handler) Create(c *gin.Context) {
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

	req, err := h.repo.Create(c.Request.Context(), mangaID, userID)
	switch {
	case errors.Is(err, ErrMangaNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "manga not found"})
	case errors.Is(err, ErrNotUploader):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "only the uploader can request premium status"})
	case errors.Is(err, ErrAlreadyPremium):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "this manga is already premium"})
	case errors.Is(err, ErrAlreadyOpen):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "an application for this manga is already under review"})
	case err != nil:
		logger.Errorf("failed to open premium request for manga %d: %v", mangaID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to open premium request"})
	default:
		c.JSON(http.StatusCreated, req)
	}
}

// @Summary      List own premium applications
// @Tags         creator
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} premium.Request
// @Router       /creator/premium-requests [get]
func (h *Handler) ListOwn(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	requests, err := h.repo.ListByCreator(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("failed to list premium requests for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list premium requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

type respondRequest struct {
	Action string `json:"action" binding:"required,oneof=accept decline"`
}

// @Summary      Accept or decline a contract offer
// @Tags         creator
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Request ID"
// @Param        request body premium.respondRequest true "Response"
// @Success      200 {object} premium.Request
// @Failure      404 {object} api.ErrorResponse
// @Router       /creator/premium-requests/{id}/respond [post]
func (h *Handler) Respond(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || requestID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request ID"})
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
		return
	}

	var updated *Request
	if req.Action == "accept" {
		updated, err = h.repo.Accept(c.Request.Context(), requestID, userID)
	} else {
		updated, err = h.repo.Decline(c.Request.Context(), requestID, userID)
	}
	switch {
	case errors.Is(err, ErrRequestNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "premium request not found"})
	case errors.Is(err, ErrNotUploader):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "this request belongs to another creator"})
	case errors.Is(err, ErrNoOffer):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "this request has no open offer"})
	case err != nil:
		logger.Errorf("failed to respond to premium request %d: %v", requestID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to respond to premium request"})
	default:
		if updated.Status == StatusApproved && h.notifier != nil {
			h.notifier.Notify(userID, "premium_approved",
				fmt.Sprintf("Your series is now premium at %d toonCoins.", updated.OfferedPrice),
				&updated.MangaID)
		}
		c.JSON(http.StatusOK, updated)
	}
}

// @Summary      Premium application queue
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter by status" Enums(pending, contract_offered, approved, rejected, cancelled)
// @Success      200 {array} premium.QueueView
// @Router       /admin/premium-requests [get]
func (h *Handler) ListQueue(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", StatusPending, StatusContractOffered, StatusApproved, StatusRejected, StatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid status filter"})
		return
	}

	queue, err := h.repo.ListQueue(c.Request.Context(), status)
	if err != nil {
		logger.Errorf("failed to list premium queue: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list premium requests"})
		return
	}

	c.JSON(http.StatusOK, queue)
}

type offerRequest struct {
	Price int64  `json:"price" binding:"required,gt=0"`
	Note  string `json:"note" binding:"max=2000"`
}

// @Summary      Send a contract offer
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Request ID"
// @Param        request body premium.offerRequest true "Offer"
// @Success      200 {object} premium.Request
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/premium-requests/{id}/offer [post]
func (h *Handler) Offer(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || requestID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request ID"})
		return
	}

	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
		return
	}

	updated, err := h.repo.Offer(c.Request.Context(), requestID, req.Price, req.Note)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no pending request with that ID"})
	case err != nil:
		logger.Errorf("failed to offer contract on request %d: %v", requestID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to send offer"})
	default:
		if h.notifier != nil {
			h.notifier.Notify(updated.CreatorID, "contract_offered",
				fmt.Sprintf("You received a premium contract offer of %d toonCoins per unlock.", updated.OfferedPrice),
				&updated.MangaID)
		}
		c.JSON(http.StatusOK, updated)
	}
}
