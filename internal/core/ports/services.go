package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/geoquest/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// GameSource performs the one-shot retrieval of a game bundle.
type GameSource interface {
	Fetch(ctx context.Context, url string) (*domain.GameBundle, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPosition(ctx context.Context, sample *domain.PositionSample) error
	PublishSessionEvent(ctx context.Context, event *domain.SessionEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePositions(ctx context.Context, handler func(ctx context.Context, sample *domain.PositionSample) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// GameLoader resolves a game id to its full bundle.
type GameLoader interface {
	Get(ctx context.Context, id string) (*domain.GameBundle, error)
}
