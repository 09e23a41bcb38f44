package receipt

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"campark/internal/auth"
	"campark/internal/session"
	"campark/internal/user"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	sessions session.Service
	users    user.Repository
}

func NewHandler(sessions session.Service, users user.Repository) *Handler {
	return &Handler{sessions: sessions, users: users}
}

// Download godoc
// @Summary      Session receipt
// @Description  PDF receipt for a completed session of the caller.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        sessionID  path  int  true  "Session ID"
// @Router       /sessions/{sessionID}/receipt [get]
func (h *Handler) Download(c *gin.Context) {
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

	detail, err := h.sessions.GetDetail(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotSessionOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only download your own receipts"})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		}
		return
	}

	if detail.Status != "completed" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipts are only available for completed sessions"})
		return
	}

	userName := ""
	if u, err := h.users.FindByID(c.Request.Context(), userID); err == nil {
		userName = u.Name
	}

	pdf, err := Generate(detail, userName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate receipt"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%d.pdf", sessionID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
