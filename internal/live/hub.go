package live

import (
	"context"
	"encoding/json"
	"sync"

	"campark/internal/logger"
	"campark/internal/lot"
	"campark/internal/metrics"

	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn
	// lotID filters broadcasts; 0 subscribes to every lot.
	lotID int
}

type envelope struct {
	lotID   int
	payload []byte
}

// Hub fans lot snapshots out to websocket subscribers. Every broadcast is a
// complete LotView; clients never need to merge diffs.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan envelope
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan envelope, 64),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				c.conn.Close()
				delete(h.clients, c)
			}
			h.mutex.Unlock()
			metrics.LiveClients.Set(0)
			return

		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mutex.Unlock()
			metrics.LiveClients.Set(float64(total))
			logger.Info("live client connected", "lot_id", c.lotID, "total", total)

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.conn.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			metrics.LiveClients.Set(float64(total))
			logger.Info("live client disconnected", "total", total)

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				if c.lotID != 0 && c.lotID != msg.lotID {
					continue
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					logger.Error("live write failed", "error", err)
					c.conn.Close()
					delete(h.clients, c)
				}
			}
			metrics.LiveClients.Set(float64(len(h.clients)))
			h.mutex.Unlock()
		}
	}
}

// PublishLotView satisfies lot.SnapshotPublisher. A full broadcast queue
// drops the snapshot rather than blocking the caller; the next status change
// re-publishes the complete state anyway.
func (h *Hub) PublishLotView(view lot.LotView) {
	payload, err := json.Marshal(view)
	if err != nil {
		logger.Error("failed to marshal lot view", "lot_id", view.LotID, "error", err)
		return
	}

	select {
	case h.broadcast <- envelope{lotID: view.LotID, payload: payload}:
	default:
		logger.Error("live broadcast queue full, dropping snapshot", "lot_id", view.LotID)
	}
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
