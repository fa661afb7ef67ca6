package ports

import (
	"context"

	"github.com/samirrijal/geoquest/internal/core/domain"
)

// GameRepository persists game bundles.
type GameRepository interface {
	Upsert(ctx context.Context, game *domain.GameBundle) error
	GetByID(ctx context.Context, id string) (*domain.GameBundle, error)
	List(ctx context.Context) ([]domain.GameBundle, error)
}
