package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"planningpoker/internal/metrics"
	"planningpoker/internal/poker"
	"planningpoker/internal/services/rounds"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 12 * time.Second
	pingPeriod      = 30 * time.Second
	dispatchTimeout = 1900 * time.Millisecond
)

type Options struct {
	AllowedOrigins  []string
	ReadLimit       int64
	SendBuffer      int
	EventsPerSecond float64
	EventBurst      int
}

type WsServer struct {
	hub      *Hub
	router   *Router
	coord    *poker.Coordinator
	roundSvc rounds.IRoundService
	metrics  *metrics.Metrics
	opts     Options
}

func NewWsServer(h *Hub, coord *poker.Coordinator, roundSvc rounds.IRoundService, m *metrics.Metrics, opts Options) *WsServer {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	srv := &WsServer{
		hub:      h,
		router:   NewRouter(),
		coord:    coord,
		roundSvc: roundSvc,
		metrics:  m,
		opts:     opts,
	}
	srv.registerHandlers() // ← all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	patterns, anyOrigin := originPatterns(s.opts.AllowedOrigins)
	rawConn, err := websocket.Accept(ginCtx.Writer, ginCtx.Request, &websocket.AcceptOptions{
		OriginPatterns:     patterns,
		InsecureSkipVerify: anyOrigin,
	})
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	if s.opts.ReadLimit > 0 {
		rawConn.SetReadLimit(s.opts.ReadLimit)
	}

	var limiter *rate.Limiter
	if s.opts.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.EventsPerSecond), max(s.opts.EventBurst, 1))
	}
	conn := newClientConn(uuid.NewString(), rawConn, s.opts.SendBuffer, limiter)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.coord.Disconnect(conn.id)
		s.hub.Unregister(conn.id)
		s.metrics.ConnClosed()
		_ = rawConn.Close(websocket.StatusNormalClosure, "")
		zap.L().Debug("ws.disconnected", zap.String("conn", conn.id))
	}()

	s.hub.Register(conn)
	s.metrics.ConnOpened()
	zap.L().Debug("ws.connected", zap.String("conn", conn.id), zap.String("remote", ginCtx.ClientIP()))

	go conn.writePump(ctx)
	go conn.pinger(ctx)
	s.reader(ctx, conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, EventCheckRoomExists,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) error {
			s.coord.CheckRoomExists(cc.ConnID, req.RoomID)
			return nil
		})

	Register(s.router, EventJoinRoom,
		func(ctx context.Context, cc *ConnContext, req JoinRoomRequest) error {
			s.coord.Join(cc.ConnID, poker.JoinRequest{
				RoomID:       req.RoomID,
				Username:     req.Username,
				Role:         poker.ParseRole(req.Role),
				IsAdmin:      req.Admin,
				TimerSeconds: req.Time,
				Stories:      req.Stories,
			})
			return nil
		})

	Register(s.router, EventLeaveRoom,
		func(ctx context.Context, cc *ConnContext, _ LeaveRoomRequest) error {
			s.coord.Leave(cc.ConnID)
			return nil
		})

	Register(s.router, EventVote,
		func(ctx context.Context, cc *ConnContext, req VoteRequest) error {
			s.coord.Vote(req.RoomID, req.Username, req.Card)
			return nil
		})

	Register(s.router, EventReset,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) error {
			s.coord.ResetVotes(req.RoomID)
			return nil
		})

	Register(s.router, EventReveal,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) error {
			res, ok := s.coord.Reveal(req.RoomID)
			if !ok {
				return nil
			}
			s.metrics.Revealed()
			err := s.roundSvc.Record(ctx, rounds.RoundResult{
				RoomID:     req.RoomID,
				Votes:      res.Votes,
				Average:    res.Average,
				MostVoted:  res.MostVoted,
				RevealedAt: time.Now().UTC(),
			})
			if err != nil {
				// archiving is best effort; the reveal already went out
				zap.L().Warn("rounds.record", zap.String("room", req.RoomID), zap.Error(err))
			}
			return nil
		})

	Register(s.router, EventChangeUserRole,
		func(ctx context.Context, cc *ConnContext, req ChangeUserRoleRequest) error {
			s.coord.ChangeRole(req.RoomID, req.Username)
			return nil
		})

	Register(s.router, EventChangeUsername,
		func(ctx context.Context, cc *ConnContext, req ChangeUsernameRequest) error {
			return s.coord.ChangeUsername(cc.ConnID, req.RoomID, req.OldUsername, req.NewUsername)
		})

	Register(s.router, EventAddUserStories,
		func(ctx context.Context, cc *ConnContext, req AddUserStoriesRequest) error {
			s.coord.ReplaceStories(req.RoomID, req.UserStories)
			return nil
		})

	Register(s.router, EventStartTimer,
		func(ctx context.Context, cc *ConnContext, req TimerRequest) error {
			s.coord.StartTimer(req.RoomID, req.Duration)
			return nil
		})

	Register(s.router, EventPauseTimer,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) error {
			s.coord.PauseTimer(req.RoomID)
			return nil
		})

	Register(s.router, EventResetTimer,
		func(ctx context.Context, cc *ConnContext, req TimerRequest) error {
			s.coord.ResetTimer(req.RoomID, req.Duration)
			return nil
		})
}

func (s *WsServer) reader(ctx context.Context, conn *clientConn) {
	cc := &ConnContext{ConnID: conn.id}

	for {
		_, data, err := conn.rawConn.Read(ctx)
		if err != nil {
			return // client closed or errored
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.replyError(conn, ErrBadPayload)
			s.metrics.Event("malformed", ErrBadPayload)
			continue
		}

		label := env.Event
		if !s.router.has(label) {
			label = "unknown"
		}

		if !conn.allow() {
			s.replyError(conn, ErrRateLimited)
			s.metrics.Event(label, ErrRateLimited)
			continue
		}

		dctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
		err = s.router.dispatch(dctx, cc, env)
		cancel()
		s.metrics.Event(label, err)

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			if !errors.Is(err, poker.ErrUsernameTaken) {
				zap.L().Debug("ws.dispatch", zap.String("event", env.Event), zap.Error(err))
			}
			s.replyError(conn, err)
		}
	}
}

func (s *WsServer) replyError(conn *clientConn, err error) {
	s.hub.Send(conn.id, EventError, ErrorBody{Error: err.Error()})
}

// originPatterns turns configured origins into host patterns for Accept. A
// "*" entry or an empty list disables the origin check.
func originPatterns(origins []string) (patterns []string, anyOrigin bool) {
	if len(origins) == 0 {
		return nil, true
	}
	for _, o := range origins {
		if o == "*" {
			return nil, true
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns, false
}
