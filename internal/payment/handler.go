package payment

import (
	"errors"
	"net/http"

	"toonlord/internal/api"
	"toonlord/internal/auth"
	"toonlord/internal/logger"
	"toonlord/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	bridge *Bridge
}

func NewHandler(bridge *Bridge) *Handler {
	return &Handler{bridge: bridge}
}

type checkoutRequest struct {
	Coins       int64 `json:"coins" binding:"required,gt=0"`
	PriceAmount int64 `json:"priceAmount" binding:"required,gt=0"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// @Summary      Create a coin checkout session
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.checkoutRequest true "Coin package"
// @Success      200 {object} payment.checkoutResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /payments/checkout [post]
func (h *Handler) CreateCheckout(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "coins and priceAmount must be positive integers"})
		return
	}

	session, err := h.bridge.StartCheckout(c.Request.Context(), userID, req.Coins, req.PriceAmount)
	if err != nil {
		writePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, checkoutResponse{URL: session.URL, SessionID: session.ID})
}

// @Summary      Verify a checkout session and credit coins
// @Description  Safe to call repeatedly; coins are credited exactly once.
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        sessionID path string true "Checkout session ID"
// @Success      200 {object} payment.ConfirmResult
// @Failure      400 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /payments/verify/{sessionID} [get]
func (h *Handler) VerifyPayment(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "session ID is required"})
		return
	}

	res, err := h.bridge.Confirm(c.Request.Context(), sessionID)
	if err != nil {
		writePaymentError(c, err)
		return
	}
	if !res.Paid {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "payment not verified"})
		return
	}

	c.JSON(http.StatusOK, res)
}

func writePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "payment provider unavailable, please retry"})
	case errors.Is(err, ErrInvalidMetadata), errors.Is(err, ErrUnknownUser):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "checkout session is invalid"})
	case errors.Is(err, wallet.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid amount"})
	case errors.Is(err, wallet.ErrConcurrentConflict):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "confirmation already in progress, please retry"})
	default:
		logger.Errorf("payment operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}
