package lot

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	service Service
}

func NewHandler(db *sqlx.DB, publisher SnapshotPublisher) *Handler {
	return &Handler{
		service: NewService(NewRepository(db), publisher),
	}
}

// ListLots godoc
// @Summary      List active parking lots
// @Description  Returns active lots with derived available-spot counts.
// @Tags         lots
// @Security     BearerAuth
// @Produce      json
// @Router       /lots [get]
func (h *Handler) ListLots(c *gin.Context) {
	lots, err := h.service.ListLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lots"})
		return
	}

	c.JSON(http.StatusOK, lots)
}

// GetLot godoc
// @Summary      Get parking lot
// @Tags         lots
// @Security     BearerAuth
// @Produce      json
// @Router       /lots/{lotID} [get]
func (h *Handler) GetLot(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("lotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lot ID"})
		return
	}

	lot, err := h.service.GetLot(c.Request.Context(), lotID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Parking lot not found"})
		return
	}

	c.JSON(http.StatusOK, lot)
}

// ListSpots godoc
// @Summary      List spots in a lot
// @Description  Snapshot read of every spot in the lot.
// @Tags         lots
// @Security     BearerAuth
// @Produce      json
// @Router       /lots/{lotID}/spots [get]
func (h *Handler) ListSpots(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("lotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lot ID"})
		return
	}

	spots, err := h.service.ListSpots(c.Request.Context(), lotID)
	if err != nil {
		if errors.Is(err, ErrLotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch spots"})
		return
	}

	c.JSON(http.StatusOK, spots)
}

// MapView godoc
// @Summary      Lot map view
// @Description  Spots grouped by row with availability counts, as rendered on the live map.
// @Tags         lots
// @Security     BearerAuth
// @Produce      json
// @Router       /lots/{lotID}/map [get]
func (h *Handler) MapView(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("lotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lot ID"})
		return
	}

	view, err := h.service.MapView(c.Request.Context(), lotID)
	if err != nil {
		if errors.Is(err, ErrLotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build map view"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreateLot godoc
// @Summary      Create parking lot
// @Description  Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /admin/lots [post]
func (h *Handler) CreateLot(c *gin.Context) {
	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.service.CreateLot(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lot"})
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// CreateSpot godoc
// @Summary      Create spot
// @Description  Admin only. Rejects spots beyond the lot's configured capacity.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /admin/lots/{lotID}/spots [post]
func (h *Handler) CreateSpot(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("lotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lot ID"})
		return
	}

	var req CreateSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spot, err := h.service.CreateSpot(c.Request.Context(), lotID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrLotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Parking lot not found"})
		case errors.Is(err, ErrLotFull):
			c.JSON(http.StatusConflict, gin.H{"error": "Lot is at configured capacity"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create spot"})
		}
		return
	}

	c.JSON(http.StatusCreated, spot)
}

// SetSpotStatus godoc
// @Summary      Set spot status
// @Description  Admin/sensor primitive: unconditional status write plus timestamp update.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Router       /admin/spots/{spotID}/status [patch]
func (h *Handler) SetSpotStatus(c *gin.Context) {
	spotID, err := strconv.Atoi(c.Param("spotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid spot ID"})
		return
	}

	var req SetSpotStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spot, err := h.service.SetSpotStatus(c.Request.Context(), spotID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be available, occupied or disabled"})
		case errors.Is(err, ErrSpotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Spot not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update spot"})
		}
		return
	}

	c.JSON(http.StatusOK, spot)
}
