package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"planningpoker/internal/http/roomhandler"
	"planningpoker/internal/metrics"
	"planningpoker/internal/poker"
	"planningpoker/internal/services/rounds"
	"planningpoker/internal/ws"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files
)

type Deps struct {
	WsSrv          *ws.WsServer
	Coord          *poker.Coordinator
	RoundService   rounds.IRoundService
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

type httpServer struct {
	listenPort uint16
	srv        http.Server
	ln         net.Listener
	deps       Deps
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, deps Deps) *httpServer {
	return &httpServer{
		listenPort: listenPort,
		deps:       deps,
		ctx:        ctx,
	}
}

// Engine builds the gin router with every route mounted.
func Engine(deps Deps) *gin.Engine {
	routerEngine := gin.New()

	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))
	routerEngine.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	routerEngine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	routerEngine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// websocket endpoint
	routerEngine.GET("/ws", deps.WsSrv.Handle)

	// REST API
	rh := roomhandler.New(deps.Coord, deps.RoundService)
	rh.Register(routerEngine)

	return routerEngine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Origin"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	h.srv = http.Server{
		Handler:           Engine(h.deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-h.ctx.Done()
		_ = h.Dispose()
	}()

	zap.L().Info("http.listen", zap.String("addr", listenAddr))
	err = h.srv.Serve(h.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in‑flight requests to finish.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn’t finish in time
	}
	return nil
}
