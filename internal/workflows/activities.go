package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/core/ports"
	"github.com/samirrijal/geoquest/internal/core/usecases"
)

// Activity names, as registered from ImportActivities' methods.
const (
	FetchBundleActivity         = "FetchBundle"
	StoreBundleActivity         = "StoreBundle"
	InvalidateGameCacheActivity = "InvalidateGameCache"
)

// ImportActivities holds the activity implementations for the import workflow.
type ImportActivities struct {
	Source ports.GameSource
	Games  *usecases.GameService
}

// FetchBundle downloads and decodes the game document.
func (a *ImportActivities) FetchBundle(ctx context.Context, url string) (*domain.GameBundle, error) {
	activity.GetLogger(ctx).Info("fetching game bundle", "url", url)
	game, err := a.Source.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	// Unplayable documents are not retried.
	if err := game.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidBundle", err)
	}
	return game, nil
}

// StoreBundle persists the bundle under gameID.
func (a *ImportActivities) StoreBundle(ctx context.Context, gameID string, game *domain.GameBundle) error {
	if game == nil {
		return temporal.NewNonRetryableApplicationError("empty bundle", "InvalidBundle", nil)
	}
	if err := a.Games.Save(ctx, gameID, game); err != nil {
		if errors.Is(err, domain.ErrInvalidBundle) {
			return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidBundle", err)
		}
		return fmt.Errorf("store bundle: %w", err)
	}
	return nil
}

// InvalidateGameCache drops the cached copy so new sessions see the import.
func (a *ImportActivities) InvalidateGameCache(ctx context.Context, gameID string) error {
	return a.Games.Invalidate(ctx, gameID)
}
