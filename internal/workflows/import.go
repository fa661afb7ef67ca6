package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geoquest/internal/core/domain"
)

// DefaultTaskQueue is the task queue the import worker polls.
const DefaultTaskQueue = "game-import-queue"

// ImportInput is the input for the import workflow.
type ImportInput struct {
	GameID    string
	SourceURL string
}

// ImportResult summarizes a finished import.
type ImportResult struct {
	GameID    string
	Waypoints int
	MaxScore  int
}

// ImportGameWorkflow fetches a game document, stores it, and invalidates the
// cached copy. Fetching is retried with backoff; a load failure that
// survives every attempt fails the workflow and nothing is stored.
func ImportGameWorkflow(ctx workflow.Context, input ImportInput) (*ImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting import workflow", "gameID", input.GameID, "url", input.SourceURL)

	fetchCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	})
	storeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	// Step 1: Fetch
	var game domain.GameBundle
	if err := workflow.ExecuteActivity(fetchCtx, FetchBundleActivity, input.SourceURL).Get(ctx, &game); err != nil {
		logger.Error("fetch failed", "error", err)
		return nil, err
	}

	// Step 2: Store
	if err := workflow.ExecuteActivity(storeCtx, StoreBundleActivity, input.GameID, &game).Get(ctx, nil); err != nil {
		return nil, err
	}

	// Step 3: Invalidate cache (best effort, the TTL bounds staleness)
	if err := workflow.ExecuteActivity(storeCtx, InvalidateGameCacheActivity, input.GameID).Get(ctx, nil); err != nil {
		logger.Warn("cache invalidation failed", "error", err)
	}

	result := &ImportResult{
		GameID:    input.GameID,
		Waypoints: len(game.Waypoints),
		MaxScore:  game.MaxScore(),
	}
	logger.Info("Import finished", "gameID", result.GameID, "waypoints", result.Waypoints)
	return result, nil
}
