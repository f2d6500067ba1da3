package ws

import (
	"sync"

	"puglands_server/internal/domain"
	"puglands_server/internal/logger"
)

// Hub fans out post-commit snapshots to connected clients. It sits strictly
// outside the transaction path: services call Broadcast* only after a commit,
// and a slow or dead consumer never blocks a request handler.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}

	logger.Debug("ws client registered", "user_id", c.UserID, "conns", len(set))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
}

// BroadcastUser delivers a user snapshot to that user's connections only.
func (h *Hub) BroadcastUser(u *domain.User) {
	msg := marshalUserUpdate(u)
	if msg == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[u.ID] {
		c.enqueue(msg)
	}
}

// BroadcastLands delivers a land snapshot to every connection.
func (h *Hub) BroadcastLands(lands []*domain.Land) {
	msg := marshalLandsUpdate(lands)
	if msg == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.clients {
		for c := range set {
			c.enqueue(msg)
		}
	}
}

// ConnectionCount reports the number of live connections, across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
