package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"
)

type clientConn struct {
	id        string
	rawConn   *websocket.Conn
	send      chan []byte
	limiter   *rate.Limiter
	done      chan struct{}
	closeOnce sync.Once
}

func newClientConn(id string, raw *websocket.Conn, sendBuffer int, limiter *rate.Limiter) *clientConn {
	return &clientConn{
		id:      id,
		rawConn: raw,
		send:    make(chan []byte, sendBuffer),
		limiter: limiter,
		done:    make(chan struct{}),
	}
}

// enqueue never blocks; it reports false when the frame was dropped.
func (c *clientConn) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *clientConn) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

func (c *clientConn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump drains the send buffer onto the socket until the connection is
// closed or a write fails.
func (c *clientConn) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.rawConn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *clientConn) pinger(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, pongWait)
			err := c.rawConn.Ping(pctx)
			cancel()
			if err != nil {
				c.close()
				_ = c.rawConn.Close(websocket.StatusPolicyViolation, "ping timeout")
				return
			}
		}
	}
}
