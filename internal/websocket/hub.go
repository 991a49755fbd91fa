package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	ws "github.com/coder/websocket"
)

// Frame types carried on the live connection. Each frame holds a full
// snapshot of its collection.
const (
	FramePosts         = "posts"
	FrameNotifications = "notifications"
	FrameLeaderboard   = "leaderboard"
	FrameAccount       = "account"
)

// Frame is one message sent to a live client.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func encodeFrame(frameType string, data any) ([]byte, error) {
	return json.Marshal(Frame{Type: frameType, Data: data})
}

// Hub tracks connected clients so they can be closed together on shutdown.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll tells every client the server is going away. Their Run loops
// return once the close handshake finishes.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.conn == nil {
			continue
		}
		if err := c.conn.Close(ws.StatusGoingAway, "server shutting down"); err != nil {
			h.logger.Debug("close client", "account_id", c.session.Current().AccountID, "error", err)
		}
	}
}
