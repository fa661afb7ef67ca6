package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/core/ports"
)

// --- Mock GameRepository ---

type mockGameRepo struct {
	upsertFn  func(ctx context.Context, game *domain.GameBundle) error
	getByIDFn func(ctx context.Context, id string) (*domain.GameBundle, error)
	listFn    func(ctx context.Context) ([]domain.GameBundle, error)
}

func (m *mockGameRepo) Upsert(ctx context.Context, game *domain.GameBundle) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, game)
	}
	return nil
}

func (m *mockGameRepo) GetByID(ctx context.Context, id string) (*domain.GameBundle, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrGameNotFound
}

func (m *mockGameRepo) List(ctx context.Context) ([]domain.GameBundle, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Mock GameSource ---

type mockSource struct {
	fetchFn func(ctx context.Context, url string) (*domain.GameBundle, error)
}

func (m *mockSource) Fetch(ctx context.Context, url string) (*domain.GameBundle, error) {
	return m.fetchFn(ctx, url)
}

// --- In-memory CacheService ---

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return b, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

// --- Mock GameLoader ---

type mockLoader struct {
	getFn func(ctx context.Context, id string) (*domain.GameBundle, error)
}

func (m *mockLoader) Get(ctx context.Context, id string) (*domain.GameBundle, error) {
	return m.getFn(ctx, id)
}

// --- Recording EventPublisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
	err    error
}

func (p *recordingPublisher) PublishPosition(ctx context.Context, sample *domain.PositionSample) error {
	return p.err
}

func (p *recordingPublisher) PublishSessionEvent(ctx context.Context, event *domain.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return p.err
}

func (p *recordingPublisher) Events() []domain.SessionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SessionEvent(nil), p.events...)
}

// twoStopGame has waypoints at (0,0) and (0.01,0.01) inside a ±0.05 area.
func twoStopGame() *domain.GameBundle {
	return &domain.GameBundle{
		ID:   "plaza",
		Name: "Plaza",
		Area: domain.Area{X1: -0.05, Y1: -0.05, X2: 0.05, Y2: 0.05},
		Waypoints: []domain.Waypoint{
			{Lat: 0, Lon: 0, Question: "2+2?", Answer: "4", Points: 10},
			{Lat: 0.01, Lon: 0.01, Question: "Capital?", Answer: "Paris", Points: 5},
		},
	}
}
