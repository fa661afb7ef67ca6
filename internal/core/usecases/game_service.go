package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/core/ports"
	"github.com/samirrijal/geoquest/internal/pkg/metrics"
)

// DefaultGameCacheTTL is used when NewGameService gets a non-positive TTL.
const DefaultGameCacheTTL = 600

// GameCacheKey is the cache key of one bundle.
func GameCacheKey(id string) string {
	return "game:" + id
}

// GameService loads and imports game bundles.
type GameService struct {
	games    ports.GameRepository
	source   ports.GameSource
	cache    ports.CacheService
	cacheTTL int
}

// NewGameService creates a new GameService. source and cache may be nil.
func NewGameService(games ports.GameRepository, source ports.GameSource, cache ports.CacheService, cacheTTL int) *GameService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultGameCacheTTL
	}
	return &GameService{games: games, source: source, cache: cache, cacheTTL: cacheTTL}
}

// Get returns the full bundle, answers included. It is for the session
// layer; handlers should only expose Public().
func (s *GameService) Get(ctx context.Context, id string) (*domain.GameBundle, error) {
	key := GameCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var game domain.GameBundle
			if err := json.Unmarshal(data, &game); err == nil {
				metrics.CacheHits.WithLabelValues("game").Inc()
				return &game, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("game").Inc()
	}

	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(game); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}
	return game, nil
}

// List returns all stored games.
func (s *GameService) List(ctx context.Context) ([]domain.GameBundle, error) {
	return s.games.List(ctx)
}

// Import fetches the bundle at url and stores it under id, replacing any
// previous version.
func (s *GameService) Import(ctx context.Context, id, url string) (*domain.GameBundle, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: no game source configured", domain.ErrDataLoadFailure)
	}
	game, err := s.source.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := s.Store(ctx, id, game); err != nil {
		return nil, err
	}
	return game, nil
}

// Store validates and persists an already fetched bundle, then drops its
// cache entry.
func (s *GameService) Store(ctx context.Context, id string, game *domain.GameBundle) error {
	if err := s.Save(ctx, id, game); err != nil {
		return err
	}
	return s.Invalidate(ctx, id)
}

// Save validates and persists a bundle under id without touching the cache.
func (s *GameService) Save(ctx context.Context, id string, game *domain.GameBundle) error {
	if id == "" {
		return fmt.Errorf("%w: empty game id", domain.ErrInvalidBundle)
	}
	game.ID = id
	if game.Name == "" {
		game.Name = id
	}
	if game.CreatedAt.IsZero() {
		game.CreatedAt = time.Now().UTC()
	}
	if err := game.Validate(); err != nil {
		return err
	}
	if err := s.games.Upsert(ctx, game); err != nil {
		return fmt.Errorf("store game %s: %w", id, err)
	}
	return nil
}

// Invalidate drops the cached copy of a bundle.
func (s *GameService) Invalidate(ctx context.Context, id string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, GameCacheKey(id))
}
