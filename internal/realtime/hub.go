package realtime

import (
	"encoding/json"
	"sync"
)

// Client is one websocket connection. The network side lives in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Event is the JSON frame pushed to connected users.
type Event struct {
	Type    string `json:"type"`
	TaskID  string `json:"taskId"`
	ActorID uint   `json:"actorId"`
	Version int    `json:"version"`
}

// Event types.
const (
	TaskCreated    = "task_created"
	TaskUpdated    = "task_updated"
	TaskReassigned = "task_reassigned"
	ViewersUpdated = "viewers_updated"
	ChatMessage    = "chat_message"
)

// Hub maintains active user connections and fans events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[Client]struct{}
}

var hubInstance *Hub
var once sync.Once

// GetHub returns the process-wide hub.
func GetHub() *Hub {
	once.Do(func() {
		hubInstance = NewHub()
	})
	return hubInstance
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[Client]struct{})}
}

// Register adds a client under a user ID.
func (h *Hub) Register(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

// Unregister removes a client and forgets users with no connections left.
func (h *Hub) Unregister(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connections counts the clients registered for a user.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast sends a raw frame to all clients of a user. Failed writes are
// left to the handler, which unregisters the client when its reader exits.
func (h *Hub) Broadcast(userID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		c.Send(message)
	}
}

// Publish sends ev once to each distinct user in userIDs. Zero IDs are skipped.
func (h *Hub) Publish(ev Event, userIDs ...uint) {
	if ev.Version == 0 {
		ev.Version = 1
	}
	frame, err := json.Marshal(ev)
	if err != nil {
		return
	}
	seen := make(map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		h.Broadcast(id, frame)
	}
}
