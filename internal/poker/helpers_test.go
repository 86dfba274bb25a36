package poker

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

type sent struct {
	kind    string
	target  string
	roomID  string
	event   string
	payload any
}

// recorder is a Transport that keeps everything it was asked to deliver.
type recorder struct {
	mu  sync.Mutex
	log []sent
}

func (r *recorder) Broadcast(roomID, event string, payload any) {
	r.push(sent{kind: "broadcast", target: roomID, event: event, payload: payload})
}

func (r *recorder) Send(connID, event string, payload any) {
	r.push(sent{kind: "send", target: connID, event: event, payload: payload})
}

func (r *recorder) Attach(connID, roomID string) {
	r.push(sent{kind: "attach", target: connID, roomID: roomID})
}

func (r *recorder) Detach(connID, roomID string) {
	r.push(sent{kind: "detach", target: connID, roomID: roomID})
}

func (r *recorder) push(s sent) {
	r.mu.Lock()
	r.log = append(r.log, s)
	r.mu.Unlock()
}

// take returns everything recorded so far and clears the log.
func (r *recorder) take() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.log
	r.log = nil
	return out
}

func (r *recorder) lastPayload(kind, target, event string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.log) - 1; i >= 0; i-- {
		s := r.log[i]
		if s.kind == kind && s.target == target && s.event == event {
			return s.payload, true
		}
	}
	return nil, false
}

func eventNames(log []sent) []string {
	out := make([]string, 0, len(log))
	for _, s := range log {
		if s.event != "" {
			out = append(out, s.kind+":"+s.event)
		} else {
			out = append(out, s.kind)
		}
	}
	return out
}

// MockTransport is a strict Transport for asserting exact deliveries.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Broadcast(roomID, event string, payload any) {
	m.Called(roomID, event, payload)
}

func (m *MockTransport) Send(connID, event string, payload any) {
	m.Called(connID, event, payload)
}

func (m *MockTransport) Attach(connID, roomID string) {
	m.Called(connID, roomID)
}

func (m *MockTransport) Detach(connID, roomID string) {
	m.Called(connID, roomID)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCoordinator() (*Coordinator, *recorder, *fakeClock) {
	rec := &recorder{}
	clk := newFakeClock()
	return NewCoordinator(rec, WithClock(clk.Now)), rec, clk
}

func join(c *Coordinator, connID, roomID, username string) {
	c.Join(connID, JoinRequest{RoomID: roomID, Username: username, Role: RolePlayer})
}

func ptr[T any](v T) *T { return &v }
