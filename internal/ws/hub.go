package ws

import (
	"encoding/json"
	"sync"

	"planningpoker/internal/metrics"
	"planningpoker/internal/poker"

	"go.uber.org/zap"
)

var _ poker.Transport = (*Hub)(nil)

// Hub keeps live connections and the broadcast group of every room. It is
// the coordinator's Transport, so none of its methods block.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]*clientConn
	rooms      map[string]*room
	membership map[string]map[string]struct{} // connID -> roomIDs
	metrics    *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		conns:      make(map[string]*clientConn),
		rooms:      make(map[string]*room),
		membership: make(map[string]map[string]struct{}),
		metrics:    m,
	}
}

func (h *Hub) Register(c *clientConn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

// Unregister drops the connection from every room and stops its pumps.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	if ok {
		for roomID := range h.membership[connID] {
			h.detachLocked(c, roomID)
		}
		delete(h.membership, connID)
		delete(h.conns, connID)
	}
	h.mu.Unlock()

	if ok {
		c.close()
	}
}

func (h *Hub) Broadcast(roomID, event string, payload any) {
	msg, err := encodeEvent(event, payload)
	if err != nil {
		zap.L().Warn("ws.encode_event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	for range r.broadcast(msg) {
		h.metrics.Dropped()
	}
}

func (h *Hub) Send(connID, event string, payload any) {
	msg, err := encodeEvent(event, payload)
	if err != nil {
		zap.L().Warn("ws.encode_event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok && !c.enqueue(msg) {
		h.metrics.Dropped()
	}
}

func (h *Hub) Attach(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}
	r, ok := h.rooms[roomID]
	if !ok {
		r = newRoom()
		h.rooms[roomID] = r
	}
	r.add(c)
	rooms, ok := h.membership[connID]
	if !ok {
		rooms = make(map[string]struct{})
		h.membership[connID] = rooms
	}
	rooms[roomID] = struct{}{}
}

func (h *Hub) Detach(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}
	h.detachLocked(c, roomID)
	delete(h.membership[connID], roomID)
}

func (h *Hub) detachLocked(c *clientConn, roomID string) {
	r, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if r.remove(c) {
		delete(h.rooms, roomID)
	}
}

// roomSize reports how many connections are attached to roomID.
func (h *Hub) roomSize(roomID string) int {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	return r.size()
}

func encodeEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(outEnvelope{Event: event, Body: payload})
}
