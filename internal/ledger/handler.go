package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"toonlord/internal/api"
	"toonlord/internal/auth"
	"toonlord/internal/logger"
	"toonlord/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	engine *Engine
	log    *wallet.Log
	store  *wallet.Store
}

func NewHandler(engine *Engine, log *wallet.Log, store *wallet.Store) *Handler {
	return &Handler{engine: engine, log: log, store: store}
}

// writeLedgerError maps ledger sentinel errors to HTTP responses.
func writeLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, wallet.ErrContentNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "manga not found"})
	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: "insufficient toonCoin balance"})
	case errors.Is(err, wallet.ErrWalletLocked):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "wallet is locked"})
	case errors.Is(err, wallet.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid amount"})
	case errors.Is(err, ErrAdRewardCapReached):
		c.JSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "daily ad reward limit reached"})
	case errors.Is(err, wallet.ErrConcurrentConflict):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "conflicting operation in progress, please retry"})
	case errors.Is(err, wallet.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "transaction not found"})
	case errors.Is(err, wallet.ErrNotReversible):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "transaction cannot be reversed"})
	default:
		logger.Errorf("ledger operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

// @Summary      Unlock a manga
// @Description  Spends toonCoins for permanent full access. Unlocking
// @Description  content you already own succeeds without charging again.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        mangaID path int true "Manga ID"
// @Success      200 {object} ledger.UnlockResult
// @Failure      402 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /manga/{mangaID}/unlock [post]
func (h *Handler) Unlock(c *gin.Context) {
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

	res, err := h.engine.Unlock(c.Request.Context(), userID, mangaID)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Claim an ad-watch reward
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ledger.PurchaseResult
// @Failure      429 {object} api.ErrorResponse
// @Router       /rewards/ad [post]
func (h *Handler) RewardAd(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	res, err := h.engine.RewardAd(c.Request.Context(), userID)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type payoutRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// @Summary      Request a creator payout
// @Tags         creator
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ledger.payoutRequest true "Payout amount in withdrawable coins"
// @Success      201 {object} wallet.Transaction
// @Failure      402 {object} api.ErrorResponse
// @Router       /creator/payouts [post]
func (h *Handler) RequestPayout(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req payoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount must be a positive integer"})
		return
	}

	record, err := h.engine.RequestPayout(c.Request.Context(), userID, req.Amount)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// @Summary      List creator earnings
// @Description  Unlock records where the caller was the earning creator.
// @Tags         creator
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Page size" default(50)
// @Param        offset query int false "Page offset" default(0)
// @Success      200 {array} wallet.Transaction
// @Router       /creator/earnings [get]
func (h *Handler) ListEarnings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.log.EarningsHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// @Summary      Refund a manga unlock
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Transaction ID"
// @Success      200 {object} wallet.Transaction
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/transactions/{id}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	txID, err := strconv.Atoi(c.Param("id"))
	if err != nil || txID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid transaction ID"})
		return
	}

	comp, err := h.engine.Refund(c.Request.Context(), txID)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// @Summary      List pending payout requests
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} wallet.Transaction
// @Router       /admin/payouts [get]
func (h *Handler) ListPendingPayouts(c *gin.Context) {
	txs, err := h.log.ListPendingPayouts(c.Request.Context())
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// @Summary      Mark a payout completed
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Transaction ID"
// @Success      200 {object} wallet.Transaction
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/payouts/{id}/complete [post]
func (h *Handler) CompletePayout(c *gin.Context) {
	txID, err := strconv.Atoi(c.Param("id"))
	if err != nil || txID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid transaction ID"})
		return
	}

	record, err := h.engine.CompletePayout(c.Request.Context(), txID)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type settleRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// @Summary      Settle creator earnings
// @Description  Moves part of a creator's pending balance to withdrawable.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID path int true "Creator user ID"
// @Param        request body ledger.settleRequest true "Amount to settle"
// @Success      200 {object} wallet.Wallet
// @Router       /admin/creators/{userID}/settle [post]
func (h *Handler) SettleEarnings(c *gin.Context) {
	creatorID, err := strconv.Atoi(c.Param("userID"))
	if err != nil || creatorID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user ID"})
		return
	}

	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount must be a positive integer"})
		return
	}

	w, err := h.engine.SettleEarnings(c.Request.Context(), creatorID, req.Amount)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type lockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// @Summary      Lock or unlock a user's wallet
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID path int true "User ID"
// @Param        request body ledger.lockRequest true "Desired lock state"
// @Success      200 {object} wallet.Wallet
// @Router       /admin/wallets/{userID}/lock [post]
func (h *Handler) SetWalletLock(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user ID"})
		return
	}

	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "locked flag is required"})
		return
	}

	w, err := h.store.SetLocked(c.Request.Context(), userID, *req.Locked)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// @Summary      Platform revenue summary
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} wallet.RevenueSummary
// @Router       /admin/revenue [get]
func (h *Handler) Revenue(c *gin.Context) {
	summary, err := h.log.PlatformRevenue(c.Request.Context())
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
