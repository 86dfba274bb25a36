package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"planningpoker/internal/config"
	"planningpoker/internal/database/db_client"
	"planningpoker/internal/database/migrations"
	"planningpoker/internal/http/http_server"
	"planningpoker/internal/metrics"
	"planningpoker/internal/poker"
	"planningpoker/internal/redis/redis_client"
	"planningpoker/internal/services/rounds"
	"planningpoker/internal/syncrounds"
	"planningpoker/internal/ws"

	"go.uber.org/zap"
)

//go:generate go tool swag init -g main.go -o api_specs

var (
	Log, _ = zap.NewDevelopment()
)

// @title			Planning Poker API
// @version		1.0
// @description	Room snapshots and archived rounds of the planning poker server.
// @BasePath		/
func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Metrics
	m := metrics.New()

	// 4. WebSockets hub + room coordinator
	hub := ws.NewHub(m)
	coord := poker.NewCoordinator(hub)
	m.TrackRooms(coord.RoomCount)

	// 5. Optional round archive: Redis stream ➜ Postgres
	roundService := rounds.NewDisabledService()
	if cfg.ArchiveEnabled {
		redisClient, err := redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort), cfg.RedisPassword, cfg.RedisDb)
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()

		pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			Log.Fatal("pg-open", zap.Error(err))
		}
		defer pgDb.Close()

		if err := migrations.Up(pgDb); err != nil {
			Log.Fatal("pg-migrate", zap.Error(err))
		}

		roundService = rounds.NewRoundService(redisClient, pgDb)
		syncrounds.Run(ctx, redisClient, pgDb)
		Log.Info("round archive enabled")
	}

	// 6. Initialize the WS server
	wsSrv := ws.NewWsServer(hub, coord, roundService, m, ws.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		ReadLimit:       cfg.WsReadLimit,
		SendBuffer:      cfg.WsSendBuffer,
		EventsPerSecond: cfg.WsEventsPerSecond,
		EventBurst:      cfg.WsEventBurst,
	})

	// 7. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, http_server.Deps{
		WsSrv:          wsSrv,
		Coord:          coord,
		RoundService:   roundService,
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
