package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geoquest/internal/adapters/gamedata"
	"github.com/samirrijal/geoquest/internal/adapters/http"
	natsadapter "github.com/samirrijal/geoquest/internal/adapters/nats"
	"github.com/samirrijal/geoquest/internal/adapters/postgres"
	"github.com/samirrijal/geoquest/internal/adapters/valkey"
	"github.com/samirrijal/geoquest/internal/core/ports"
	"github.com/samirrijal/geoquest/internal/core/usecases"
	"github.com/samirrijal/geoquest/internal/pkg/config"
	"github.com/samirrijal/geoquest/internal/pkg/logging"
	"github.com/samirrijal/geoquest/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geoquest-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS: publisher for session events, subscriber for the tracker feed
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Use cases
	gameRepo := postgres.NewGameRepo(db)
	source := gamedata.NewSource(cfg.Game.FetchTimeout)
	gameSvc := usecases.NewGameService(gameRepo, source, cacheSvc, cfg.Game.CacheTTL)
	sessionSvc := usecases.NewSessionService(gameSvc, publisher,
		usecases.WithProximityRadius(cfg.Game.ProximityRadius),
		usecases.WithSessionTTL(cfg.Game.SessionTTL),
	)
	defer sessionSvc.Close()
	go sessionSvc.RunJanitor(time.Minute)

	// Seed game
	if cfg.Game.SeedID != "" {
		seedCtx, seedCancel := context.WithTimeout(ctx, cfg.Game.FetchTimeout+5*time.Second)
		if _, err := gameSvc.Import(seedCtx, cfg.Game.SeedID, cfg.Game.SeedURL); err != nil {
			slog.Error("seed import failed", "game_id", cfg.Game.SeedID, "url", cfg.Game.SeedURL, "error", err)
		} else {
			slog.Info("seed game imported", "game_id", cfg.Game.SeedID)
		}
		seedCancel()
	}

	// External location providers
	if pub != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := sub.SubscribePositions(ctx, sessionSvc.HandleSample); err != nil {
				slog.Warn("position feed subscribe failed", "error", err)
			}
		}
	}

	deps := &http.Dependencies{
		Games:    gameSvc,
		Sessions: sessionSvc,
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "GeoQuest API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
