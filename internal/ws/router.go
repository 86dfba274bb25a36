package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownEvent = errors.New("unknown_event")
	ErrBadPayload   = errors.New("bad_payload")
	ErrRateLimited  = errors.New("rate_limited")
)

// ConnContext identifies the connection an event arrived on.
type ConnContext struct {
	ConnID string
}

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, body json.RawMessage) error

// Router keeps a map[event]handler, à‑la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
	validate *validator.Validate
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]rawHandler),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register binds an event to a strongly‑typed handler. The body is decoded
// into Req and, for struct requests, checked against its validate tags.
func Register[Req any](
	r *Router,
	event string,
	h func(ctx context.Context, c *ConnContext, req Req) error,
) {
	if event == "" {
		panic("ws router: empty event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[event] = func(ctx context.Context, c *ConnContext, body json.RawMessage) error {
		var req Req
		if len(body) > 0 && string(body) != "null" {
			if err := json.Unmarshal(body, &req); err != nil {
				return fmt.Errorf("%w: %v", ErrBadPayload, err)
			}
		}
		if reflect.ValueOf(req).Kind() == reflect.Struct {
			if err := r.validate.Struct(req); err != nil {
				return fmt.Errorf("%w: %v", ErrBadPayload, err)
			}
		}
		return h(ctx, c, req)
	}
}

func (r *Router) has(event string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[event]
	return ok
}

// dispatch is called by the server’s reader loop.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, env Envelope) error {
	r.mu.RLock()
	h, ok := r.handlers[env.Event]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownEvent
	}
	return h(ctx, c, env.Body)
}
