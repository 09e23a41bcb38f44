package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"campark/internal/auth"
	"campark/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Notifier receives successful top-ups for async delivery (email receipt).
// A nil notifier disables delivery.
type Notifier interface {
	NotifyTopUp(userID int, amountCents, balanceCents int64)
}

type Handler struct {
	repo     Repository
	notifier Notifier
}

func NewHandler(db *sqlx.DB, notifier Notifier) *Handler {
	return &Handler{
		repo:     NewRepository(db),
		notifier: notifier,
	}
}

// GetBalance godoc
// @Summary      Wallet balance
// @Description  Returns the caller's wallet, creating an empty one on first use.
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Router       /wallet [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	w, err := h.repo.GetOrCreateWallet(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, w)
}

// TopUp godoc
// @Summary      Top up wallet
// @Description  Credits the wallet and appends a topup row to the ledger.
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /wallet/topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Gateways supply their own reference; manual top-ups get one minted here
	// so every ledger row stays traceable.
	if req.ReferenceID == "" {
		req.ReferenceID = uuid.NewString()
	}

	recorded, err := h.repo.TopUp(c.Request.Context(), userID, req.AmountCents, req.PaymentMethod, req.ReferenceID)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents must be positive"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to top up wallet"})
		return
	}

	metrics.RecordWalletTopUp()
	if h.notifier != nil {
		h.notifier.NotifyTopUp(userID, recorded.AmountCents, recorded.BalanceAfter)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "wallet recharged",
		"transaction": recorded,
	})
}

// ListTransactions godoc
// @Summary      Transaction history
// @Description  Ledger rows newest first; limit defaults to 50.
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// Reconcile godoc
// @Summary      Audit a wallet against its ledger
// @Description  Replays the ledger for one user and reports drift. Admin only.
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Router       /admin/wallets/{userID}/reconcile [get]
func (h *Handler) Reconcile(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	res, err := h.repo.Reconcile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reconcile wallet"})
		return
	}

	c.JSON(http.StatusOK, res)
}
