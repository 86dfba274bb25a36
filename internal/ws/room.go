package ws

import "sync"

// room is the broadcast group of one poker room.
type room struct {
	mu    sync.RWMutex
	conns map[*clientConn]struct{}
}

func newRoom() *room { return &room{conns: map[*clientConn]struct{}{}} }

func (r *room) add(c *clientConn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

func (r *room) remove(c *clientConn) (empty bool) {
	r.mu.Lock()
	delete(r.conns, c)
	empty = len(r.conns) == 0
	r.mu.Unlock()
	return empty
}

// broadcast returns how many connections had to drop the frame.
func (r *room) broadcast(msg []byte) (dropped int) {
	// Take a quick snapshot of the current connections
	r.mu.RLock()
	conns := make([]*clientConn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		if !c.enqueue(msg) {
			dropped++
		}
	}
	return dropped
}

func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
