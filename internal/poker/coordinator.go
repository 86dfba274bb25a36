package poker

import (
	"errors"
	"sync"
	"time"
)

// ErrUsernameTaken is returned by ChangeUsername when the new name is seated.
var ErrUsernameTaken = errors.New("username already taken in room")

// Coordinator owns every room and the connection index. All operations are
// serialized by mu; deliveries are flushed to the transport before mu is
// released so each room observes events in the order they were applied.
type Coordinator struct {
	mu        sync.Mutex
	rooms     map[string]*room
	timers    map[string]*timer
	stories   map[string][]string
	conns     *connIndex
	transport Transport
	now       func() time.Time
}

type Option func(*Coordinator)

// WithClock overrides the wall clock used by the timer.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator returns an empty coordinator delivering through t.
func NewCoordinator(t Transport, opts ...Option) *Coordinator {
	c := &Coordinator{
		rooms:     make(map[string]*room),
		timers:    make(map[string]*timer),
		stories:   make(map[string][]string),
		conns:     newConnIndex(),
		transport: t,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) setTransport(t Transport) {
	c.mu.Lock()
	c.transport = t
	c.mu.Unlock()
}

func (c *Coordinator) apply(fn func(o *outbox)) {
	var o outbox
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&o)
	o.flush(c.transport)
}

type JoinRequest struct {
	RoomID   string
	Username string
	Role     Role
	IsAdmin  bool
	// TimerSeconds overwrites the room timer duration when set.
	TimerSeconds *int64
	// Stories seeds the backlog when the room has none yet. nil means absent.
	Stories []string
}

// Join seats the connection in the room and sends it the current room state.
func (c *Coordinator) Join(connID string, req JoinRequest) {
	c.apply(func(o *outbox) {
		target := seat{roomID: req.RoomID, username: req.Username}

		if cur, ok := c.conns.lookup(connID); ok && cur != target {
			c.release(o, connID, cur, true)
		}

		r, ok := c.rooms[req.RoomID]
		if !ok {
			r = newRoom()
			c.rooms[req.RoomID] = r
		}
		t, ok := c.timers[req.RoomID]
		if !ok {
			t = &timer{}
			c.timers[req.RoomID] = t
		}
		_, hadStories := c.stories[req.RoomID]
		if !hadStories {
			c.stories[req.RoomID] = []string{}
		}

		role := req.Role
		if role == "" {
			role = RolePlayer
		}
		r.upsert(Participant{Username: req.Username, Role: role, IsAdmin: req.IsAdmin})

		// an evicted connection also leaves the room group so its later
		// frames cannot mix rooms
		if evicted, ok := c.conns.bind(connID, target); ok {
			o.detach(evicted, req.RoomID)
		}
		o.attach(connID, req.RoomID)

		if req.TimerSeconds != nil {
			t.duration = max(*req.TimerSeconds, 0)
		}
		if req.Stories != nil && !hadStories {
			c.stories[req.RoomID] = append([]string(nil), req.Stories...)
		}

		o.broadcast(req.RoomID, EventRoomUpdate, r.memberViews())
		o.unicast(connID, EventRoomState, RoomState{Revealed: r.revealed, Votes: r.votes()})
		o.unicast(connID, EventStoriesUpdate, c.storyList(req.RoomID))
		o.unicast(connID, EventTimerState, t.state(c.now()))
	})
}

// Leave releases the caller's seat and detaches it from the room group.
func (c *Coordinator) Leave(connID string) {
	c.apply(func(o *outbox) {
		if s, ok := c.conns.lookup(connID); ok {
			c.release(o, connID, s, true)
		}
	})
}

// Disconnect releases the seat of a connection the transport already closed.
func (c *Coordinator) Disconnect(connID string) {
	c.apply(func(o *outbox) {
		if s, ok := c.conns.lookup(connID); ok {
			c.release(o, connID, s, false)
		}
	})
}

func (c *Coordinator) release(o *outbox, connID string, s seat, detach bool) {
	c.conns.unbind(connID)
	if detach {
		o.detach(connID, s.roomID)
	}
	r, ok := c.rooms[s.roomID]
	if !ok {
		return
	}
	r.remove(s.username)
	o.broadcast(s.roomID, EventRoomUpdate, r.memberViews())
	o.broadcast(s.roomID, EventVotesUpdate, r.votes())
}

func (c *Coordinator) CheckRoomExists(connID, roomID string) {
	c.apply(func(o *outbox) {
		o.unicast(connID, EventRoomExistsAnswer, RoomExists{Exists: c.exists(roomID)})
	})
}

func (c *Coordinator) exists(roomID string) bool {
	if _, ok := c.rooms[roomID]; ok {
		return true
	}
	if _, ok := c.timers[roomID]; ok {
		return true
	}
	_, ok := c.stories[roomID]
	return ok
}

// Snapshot returns a read-only view of the room, or false when no state
// exists for it.
func (c *Coordinator) Snapshot(roomID string) (RoomSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.exists(roomID) {
		return RoomSnapshot{}, false
	}
	snap := RoomSnapshot{
		ID:           roomID,
		Participants: []SeatView{},
		Stories:      c.storyList(roomID),
	}
	if r, ok := c.rooms[roomID]; ok {
		snap.Revealed = r.revealed
		r.each(func(p *Participant) {
			snap.Participants = append(snap.Participants, SeatView{
				Username: p.Username,
				Role:     p.Role,
				Admin:    p.IsAdmin,
				Voted:    p.Vote != "",
			})
		})
		if r.revealed {
			snap.Votes = r.votes()
		}
	}
	if t, ok := c.timers[roomID]; ok {
		snap.Timer = t.state(c.now())
	} else {
		snap.Timer = (&timer{}).state(c.now())
	}
	return snap, true
}

// RoomCount reports how many rooms hold any state.
func (c *Coordinator) RoomCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]struct{}, len(c.rooms))
	for id := range c.rooms {
		seen[id] = struct{}{}
	}
	for id := range c.timers {
		seen[id] = struct{}{}
	}
	for id := range c.stories {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// boundConnections reports how many connections currently claim a seat.
func (c *Coordinator) boundConnections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns.len()
}
