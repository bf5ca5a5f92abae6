package ws

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/events"
)

// Hub is the process-local room registry: connection ids to clients, room
// names to member connections. It holds no authoritative state; membership
// is rebuilt from scratch on every connection and dropped on disconnect.
// Constructed per process, never a package singleton.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // connID -> client
	rooms   map[string]map[string]*Client // room -> connID -> client
	log     *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		log:     log,
	}
}

// Register adds the client and auto-joins its personal room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.joinLocked(events.UserRoom(c.UserID), c)
	h.mu.Unlock()
}

// Unregister removes the client from every room and closes its send
// channel. Returns the number of connections the user still holds, so the
// caller can decide whether the user went fully offline.
func (h *Hub) Unregister(c *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return len(h.rooms[events.UserRoom(c.UserID)])
	}
	delete(h.clients, c.ID)
	for room, members := range h.rooms {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	c.closeSend()
	return len(h.rooms[events.UserRoom(c.UserID)])
}

// Join adds the client to a room.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	h.joinLocked(room, c)
	h.mu.Unlock()
}

func (h *Hub) joinLocked(room string, c *Client) {
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][c.ID] = c
}

// Leave removes the client from a room.
func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}

// MembersOf returns the distinct user ids currently in a room, sorted.
func (h *Hub) MembersOf(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, c := range h.rooms[room] {
		seen[c.UserID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Broadcast delivers an event to every connection in the room.
func (h *Hub) Broadcast(room, event string, data any) {
	h.broadcast(room, "", event, data)
}

// BroadcastExcept delivers an event to every connection in the room except
// the named one (typically the originator).
func (h *Hub) BroadcastExcept(room, exceptConnID, event string, data any) {
	h.broadcast(room, exceptConnID, event, data)
}

func (h *Hub) broadcast(room, exceptConnID, event string, data any) {
	frame, err := marshalEnvelope(event, data)
	if err != nil {
		h.log.Errorw("envelope marshal failed", "event", event, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, c := range h.rooms[room] {
		if connID == exceptConnID {
			continue
		}
		c.Enqueue(frame)
	}
}

// Close disconnects every client, used during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		c.closeSend()
	}
	h.rooms = make(map[string]map[string]*Client)
}
