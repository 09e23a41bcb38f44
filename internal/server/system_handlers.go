package server

import (
	"net/http"

	"campark/internal/api"
	"campark/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Queue a test notification
// @Tags         system
// @Produce      json
// @Param        email query string true "Recipient email"
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/test-notification [get]
func TestNotification(notifyService *notify.Service) gin.HandlerFunc {
	type recipient struct {
		Email string `validate:"required,email"`
	}

	return func(c *gin.Context) {
		req := recipient{Email: c.Query("email")}
		if errs := ValidateStruct(req); len(errs) > 0 {
			RespondWithValidationErrors(c, errs)
			return
		}

		if err := notifyService.Send(c.Request.Context(), req.Email, "Test User", "test", "Test Notification from CamPark", "Notifications are working!"); err != nil {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, api.MessageResponse{Message: "Notification queued successfully"})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
