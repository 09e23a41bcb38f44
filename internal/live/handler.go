package live

import (
	"net/http"
	"strconv"

	"campark/internal/logger"
	"campark/internal/lot"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub  *Hub
	lots lot.Service
}

func NewHandler(hub *Hub, lots lot.Service) *Handler {
	return &Handler{hub: hub, lots: lots}
}

// Subscribe godoc
// @Summary      Live lot map stream
// @Description  Upgrades to a websocket and streams full map snapshots for the
// @Description  lot. The current snapshot is sent immediately on connect.
// @Tags         live
// @Param        lotID  path  int  true  "Lot ID"
// @Router       /ws/lots/{lotID} [get]
func (h *Handler) Subscribe(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("lotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lot ID"})
		return
	}

	view, err := h.lots.MapView(c.Request.Context(), lotID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Parking lot not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}

	// Seed the connection with the current state before registering, so the
	// first message is always a full snapshot.
	if err := conn.WriteJSON(view); err != nil {
		conn.Close()
		return
	}

	cl := &client{conn: conn, lotID: lotID}
	h.hub.register <- cl

	go func() {
		defer func() {
			h.hub.unregister <- cl
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Error("websocket read failed", "error", err)
				}
				return
			}
		}
	}()
}
