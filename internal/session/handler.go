package session

import (
	"errors"
	"net/http"
	"strconv"

	"campark/internal/auth"
	"campark/internal/lot"
	"campark/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// StartSession godoc
// @Summary      Start parking session
// @Description  Claims the spot and opens a session. One active session per user.
// @Tags         sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      StartSessionRequest  true  "Spot to claim"
// @Success      201      {object}  Session
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /sessions/start [post]
func (h *Handler) StartSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.service.StartSession(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, lot.ErrSpotNotFound), errors.Is(err, lot.ErrLotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Spot not found"})
		case errors.Is(err, lot.ErrSpotUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": "Spot is not available"})
		case errors.Is(err, ErrActiveSessionExists):
			c.JSON(http.StatusConflict, gin.H{"error": "You already have an active session"})
		case errors.Is(err, ErrLotClosed):
			c.JSON(http.StatusConflict, gin.H{"error": "Parking lot is closed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		}
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// EndSession godoc
// @Summary      End parking session
// @Description  Closes the caller's active session, frees the spot and charges
// @Description  the wallet. The session closes even when the charge fails; the
// @Description  payment_status field reports the outcome.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Session
// @Failure      404  {object}  gin.H
// @Failure      500  {object}  gin.H
// @Router       /sessions/end [post]
func (h *Handler) EndSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	sess, err := h.service.EndSession(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active parking session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
		return
	}

	if sess.PaymentStatus == PaymentFailed {
		c.JSON(http.StatusOK, gin.H{
			"session": sess,
			"warning": "Insufficient balance: top up your wallet and pay the outstanding fee",
		})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// PayOutstanding godoc
// @Summary      Pay outstanding session fee
// @Description  Retries the wallet charge for a completed session whose payment failed.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {object}  Session
// @Failure      400        {object}  gin.H
// @Failure      402        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /sessions/{sessionID}/pay [post]
func (h *Handler) PayOutstanding(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	sessionID, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	sess, err := h.service.PayOutstanding(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, ErrNotSessionOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only pay for your own sessions"})
		case errors.Is(err, ErrAlreadyPaid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Session is already paid"})
		case errors.Is(err, ErrNotCompleted):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Session is still active"})
		case errors.Is(err, wallet.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient wallet balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to pay session"})
		}
		return
	}

	c.JSON(http.StatusOK, sess)
}

// GetActive godoc
// @Summary      Current session
// @Description  The caller's active session with the fee accrued so far.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ActiveSessionView
// @Failure      404  {object}  gin.H
// @Router       /sessions/active [get]
func (h *Handler) GetActive(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	view, err := h.service.GetActive(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active parking session"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetHistory godoc
// @Summary      Session history
// @Description  Completed sessions newest first.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Router       /sessions/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sessions, err := h.service.GetHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetLotSessions godoc
// @Summary      Sessions in a lot
// @Description  Admin view of sessions, newest first.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Router       /admin/lots/{lotID}/sessions [get]
func (h *Handler) GetLotSessions(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("lotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lot ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sessions, err := h.service.GetLotSessions(c.Request.Context(), lotID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}
