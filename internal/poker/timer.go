package poker

import "time"

// timer is "duration seconds remaining as of the last state change". While
// running, clients derive the live countdown from startedAt.
type timer struct {
	duration  int64
	running   bool
	startedAt time.Time
}

func (t *timer) state(now time.Time) TimerState {
	st := TimerState{
		Duration:   t.duration,
		Running:    t.running,
		ServerTime: now.UnixMilli(),
	}
	if t.running {
		ms := t.startedAt.UnixMilli()
		st.StartedAt = &ms
	}
	return st
}

// StartTimer starts the countdown. A supplied duration replaces the stored one
// even if the timer is already running; elapsed time is not carried over.
func (c *Coordinator) StartTimer(roomID string, duration *int64) {
	c.apply(func(o *outbox) {
		t := c.timerFor(roomID)
		if duration != nil {
			t.duration = max(*duration, 0)
		}
		t.running = true
		t.startedAt = c.now()
		o.broadcast(roomID, EventTimerState, t.state(c.now()))
	})
}

func (c *Coordinator) PauseTimer(roomID string) {
	c.apply(func(o *outbox) {
		t, ok := c.timers[roomID]
		if !ok {
			return
		}
		now := c.now()
		if t.running {
			elapsed := int64(now.Sub(t.startedAt) / time.Second)
			t.duration = max(t.duration-elapsed, 0)
		}
		t.running = false
		t.startedAt = time.Time{}
		o.broadcast(roomID, EventTimerState, t.state(now))
	})
}

func (c *Coordinator) ResetTimer(roomID string, duration *int64) {
	c.apply(func(o *outbox) {
		t := c.timerFor(roomID)
		if duration != nil {
			t.duration = max(*duration, 0)
		}
		t.running = false
		t.startedAt = time.Time{}
		o.broadcast(roomID, EventTimerState, t.state(c.now()))
	})
}

func (c *Coordinator) timerFor(roomID string) *timer {
	t, ok := c.timers[roomID]
	if !ok {
		t = &timer{}
		c.timers[roomID] = t
	}
	return t
}
