// Command importer runs the game import worker, or starts one import.
//
//	importer worker
//	importer start <game-id> <url>
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/geoquest/internal/adapters/gamedata"
	"github.com/samirrijal/geoquest/internal/adapters/postgres"
	"github.com/samirrijal/geoquest/internal/adapters/valkey"
	"github.com/samirrijal/geoquest/internal/core/ports"
	"github.com/samirrijal/geoquest/internal/core/usecases"
	"github.com/samirrijal/geoquest/internal/pkg/config"
	"github.com/samirrijal/geoquest/internal/pkg/logging"
	"github.com/samirrijal/geoquest/internal/workflows"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <worker | start <game-id> <url>>")
	}

	cfg, err := config.Load("geoquest-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch os.Args[1] {
	case "worker":
		runWorker(c, cfg)
	case "start":
		if len(os.Args) != 4 {
			log.Fatal("usage: importer start <game-id> <url>")
		}
		startImport(c, cfg, os.Args[2], os.Args[3])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runWorker(c client.Client, cfg *config.Config) {
	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, cache will expire on its own", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	source := gamedata.NewSource(cfg.Game.FetchTimeout)
	games := usecases.NewGameService(postgres.NewGameRepo(db), source, cacheSvc, cfg.Game.CacheTTL)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ImportGameWorkflow)
	w.RegisterActivity(&workflows.ImportActivities{Source: source, Games: games})

	slog.Info("import worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startImport(c client.Client, cfg *config.Config, gameID, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "import-" + gameID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.ImportGameWorkflow, workflows.ImportInput{GameID: gameID, SourceURL: url})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("import started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

	var result workflows.ImportResult
	if err := run.Get(ctx, &result); err != nil {
		log.Fatalf("import failed: %v", err)
	}
	slog.Info("import finished", "game_id", result.GameID, "waypoints", result.Waypoints, "max_score", result.MaxScore)
}
