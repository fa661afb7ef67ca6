package workflows_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/core/ports"
	"github.com/samirrijal/geoquest/internal/core/usecases"
	"github.com/samirrijal/geoquest/internal/workflows"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (*domain.GameBundle, error)
}

func (s *fakeSource) Fetch(ctx context.Context, url string) (*domain.GameBundle, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fn(call)
}

type fakeRepo struct {
	mu     sync.Mutex
	stored map[string]*domain.GameBundle
}

func (r *fakeRepo) Upsert(ctx context.Context, game *domain.GameBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[game.ID] = game
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.GameBundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.stored[id]; ok {
		return g, nil
	}
	return nil, domain.ErrGameNotFound
}

func (r *fakeRepo) List(ctx context.Context) ([]domain.GameBundle, error) { return nil, nil }

type fakeCache struct {
	mu      sync.Mutex
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) { return nil, ports.ErrCacheMiss }
func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	return nil
}
func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, key)
	return nil
}

func sampleGame() *domain.GameBundle {
	return &domain.GameBundle{
		Area: domain.Area{X1: 43.25, Y1: -2.95, X2: 43.27, Y2: -2.92},
		Waypoints: []domain.Waypoint{
			{Lat: 43.2630, Lon: -2.9350, Question: "Station name?", Answer: "Abando", Points: 10},
			{Lat: 43.2687, Lon: -2.9340, Question: "Museum?", Answer: "Guggenheim", Points: 20},
		},
	}
}

func TestImportGameWorkflow_RetriesFetch(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	src := &fakeSource{fn: func(call int) (*domain.GameBundle, error) {
		if call < 3 {
			return nil, domain.ErrDataLoadFailure
		}
		return sampleGame(), nil
	}}
	repo := &fakeRepo{stored: make(map[string]*domain.GameBundle)}
	cache := &fakeCache{}

	env.RegisterWorkflow(workflows.ImportGameWorkflow)
	env.RegisterActivity(&workflows.ImportActivities{
		Source: src,
		Games:  usecases.NewGameService(repo, src, cache, 0),
	})

	env.ExecuteWorkflow(workflows.ImportGameWorkflow, workflows.ImportInput{
		GameID:    "bilbao",
		SourceURL: "https://example.com/bilbao.json",
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected workflow error: %v", err)
	}

	var result workflows.ImportResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatal(err)
	}
	if result.Waypoints != 2 || result.MaxScore != 30 {
		t.Errorf("unexpected result: %+v", result)
	}
	if src.calls != 3 {
		t.Errorf("expected 3 fetch attempts, got %d", src.calls)
	}
	stored, ok := repo.stored["bilbao"]
	if !ok {
		t.Fatal("expected bundle to be stored")
	}
	if stored.Waypoints[1].Answer != "Guggenheim" {
		t.Errorf("answers must survive the activity round trip, got %+v", stored.Waypoints[1])
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != usecases.GameCacheKey("bilbao") {
		t.Errorf("expected cache invalidation, got %v", cache.deleted)
	}
}

func TestImportGameWorkflow_GivesUpAfterFiveAttempts(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	src := &fakeSource{fn: func(call int) (*domain.GameBundle, error) {
		return nil, errors.New("connection refused")
	}}
	repo := &fakeRepo{stored: make(map[string]*domain.GameBundle)}

	env.RegisterWorkflow(workflows.ImportGameWorkflow)
	env.RegisterActivity(&workflows.ImportActivities{
		Source: src,
		Games:  usecases.NewGameService(repo, src, nil, 0),
	})

	env.ExecuteWorkflow(workflows.ImportGameWorkflow, workflows.ImportInput{GameID: "g", SourceURL: "http://x"})

	if err := env.GetWorkflowError(); err == nil {
		t.Fatal("expected workflow to fail")
	}
	if src.calls != 5 {
		t.Errorf("expected 5 fetch attempts, got %d", src.calls)
	}
	if len(repo.stored) != 0 {
		t.Error("nothing should be stored after a failed fetch")
	}
}

func TestImportGameWorkflow_InvalidBundleNotRetried(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	src := &fakeSource{fn: func(call int) (*domain.GameBundle, error) {
		g := sampleGame()
		g.Waypoints[0].Points = -5
		return g, nil
	}}
	repo := &fakeRepo{stored: make(map[string]*domain.GameBundle)}

	env.RegisterWorkflow(workflows.ImportGameWorkflow)
	env.RegisterActivity(&workflows.ImportActivities{
		Source: src,
		Games:  usecases.NewGameService(repo, src, nil, 0),
	})

	env.ExecuteWorkflow(workflows.ImportGameWorkflow, workflows.ImportInput{GameID: "g", SourceURL: "http://x"})

	if err := env.GetWorkflowError(); err == nil {
		t.Fatal("expected workflow to fail")
	}
	if src.calls != 1 {
		t.Errorf("expected a single fetch attempt, got %d", src.calls)
	}
}
