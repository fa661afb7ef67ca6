package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/core/usecases"
)

func newSessionService(t *testing.T, pub *recordingPublisher, opts ...usecases.SessionOption) *usecases.SessionService {
	t.Helper()
	loader := &mockLoader{
		getFn: func(ctx context.Context, id string) (*domain.GameBundle, error) {
			if id != "plaza" {
				return nil, domain.ErrGameNotFound
			}
			return twoStopGame(), nil
		},
	}
	var svc *usecases.SessionService
	if pub == nil {
		svc = usecases.NewSessionService(loader, nil, opts...)
	} else {
		svc = usecases.NewSessionService(loader, pub, opts...)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestSessionService_FullRun(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newSessionService(t, pub)
	ctx := context.Background()

	snap, err := svc.Start(ctx, "plaza")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.ID == "" || snap.GameID != "plaza" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Active == nil || snap.Active.Question != "" {
		t.Errorf("question must be hidden before unlock: %+v", snap.Active)
	}
	id := snap.ID

	steps := []struct {
		name string
		run  func() (domain.Outcome, error)
		want domain.OutcomeKind
	}{
		{"outside", func() (domain.Outcome, error) { return svc.IngestPosition(ctx, id, 1, 1, domain.OriginHTTP) }, domain.OutcomeOutOfArea},
		{"far", func() (domain.Outcome, error) { return svc.IngestPosition(ctx, id, 0.001, 0.001, domain.OriginHTTP) }, domain.OutcomeInArea},
		{"early answer", func() (domain.Outcome, error) { return svc.SubmitAnswer(ctx, id, "4", domain.OriginHTTP) }, domain.OutcomeQuestionLocked},
		{"arrive", func() (domain.Outcome, error) { return svc.IngestPosition(ctx, id, 0, 0, domain.OriginHTTP) }, domain.OutcomeQuestionUnlocked},
		{"wrong", func() (domain.Outcome, error) { return svc.SubmitAnswer(ctx, id, "5", domain.OriginHTTP) }, domain.OutcomeIncorrect},
		{"right", func() (domain.Outcome, error) { return svc.SubmitAnswer(ctx, id, " 4 ", domain.OriginWebSocket) }, domain.OutcomeCorrect},
		{"arrive 2", func() (domain.Outcome, error) { return svc.IngestPosition(ctx, id, 0.01, 0.01, domain.OriginNATS) }, domain.OutcomeQuestionUnlocked},
		{"finish", func() (domain.Outcome, error) { return svc.SubmitAnswer(ctx, id, "Paris", domain.OriginHTTP) }, domain.OutcomeGameFinished},
		{"after", func() (domain.Outcome, error) { return svc.IngestPosition(ctx, id, 0, 0, domain.OriginHTTP) }, domain.OutcomeGameComplete},
	}
	for _, st := range steps {
		out, err := st.run()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", st.name, err)
		}
		if out.Kind != st.want {
			t.Fatalf("%s: expected %s, got %s", st.name, st.want, out.Kind)
		}
	}

	snap, err = svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !snap.Finished || snap.State.TotalScore != 15 || snap.State.CurrentIndex != 2 {
		t.Errorf("unexpected final snapshot: %+v", snap)
	}
	if snap.Active != nil {
		t.Error("finished session has no active waypoint")
	}
	if snap.LastPosition == nil || snap.LastPosition.Lat != 0 {
		t.Errorf("expected last in-area position to be kept, got %+v", snap.LastPosition)
	}

	events := pub.Events()
	if len(events) != len(steps) {
		t.Fatalf("expected %d events, got %d", len(steps), len(events))
	}
	if events[6].Origin != domain.OriginNATS || events[6].GameID != "plaza" {
		t.Errorf("unexpected event: %+v", events[6])
	}
}

func TestSessionService_SnapshotShowsQuestionWhileAwaiting(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")

	if _, err := svc.IngestPosition(ctx, snap.ID, 0.0001, 0.0001, domain.OriginHTTP); err != nil {
		t.Fatal(err)
	}
	snap, _ = svc.Get(ctx, snap.ID)
	if !snap.State.AwaitingAnswer || snap.Active == nil || snap.Active.Question != "2+2?" {
		t.Errorf("expected unlocked question in snapshot, got %+v", snap)
	}
}

func TestSessionService_LastPositionIgnoresOutOfArea(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")

	_, _ = svc.IngestPosition(ctx, snap.ID, 0.002, 0.003, domain.OriginHTTP)
	_, _ = svc.IngestPosition(ctx, snap.ID, 10, 10, domain.OriginHTTP)

	snap, _ = svc.Get(ctx, snap.ID)
	if snap.LastPosition == nil || snap.LastPosition.Lat != 0.002 || snap.LastPosition.Lon != 0.003 {
		t.Errorf("expected marker to stay at last in-area sample, got %+v", snap.LastPosition)
	}
}

func TestSessionService_Start_LoadFailure(t *testing.T) {
	svc := newSessionService(t, nil)
	_, err := svc.Start(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDataLoadFailure) {
		t.Errorf("expected ErrDataLoadFailure, got %v", err)
	}
	if !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("expected cause to be kept, got %v", err)
	}
	if svc.Len() != 0 {
		t.Error("no session should be created")
	}
}

func TestSessionService_UnknownSession(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	if _, err := svc.IngestPosition(ctx, "nope", 0, 0, domain.OriginHTTP); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, "nope", "x", domain.OriginHTTP); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.End(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_InvalidPosition(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")
	if _, err := svc.IngestPosition(ctx, snap.ID, 91, 0, domain.OriginHTTP); !errors.Is(err, domain.ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestSessionService_LocationErrorHalts(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")

	snap, err := svc.ReportLocationError(ctx, snap.ID, "permission denied")
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Halted || snap.HaltReason != "permission denied" {
		t.Errorf("expected halted snapshot, got %+v", snap)
	}

	// first reason wins
	snap, _ = svc.ReportLocationError(ctx, snap.ID, "timeout")
	if snap.HaltReason != "permission denied" {
		t.Errorf("expected first reason kept, got %q", snap.HaltReason)
	}

	if _, err := svc.IngestPosition(ctx, snap.ID, 0, 0, domain.OriginHTTP); !errors.Is(err, domain.ErrSessionHalted) {
		t.Errorf("expected ErrSessionHalted, got %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, snap.ID, "4", domain.OriginHTTP); !errors.Is(err, domain.ErrSessionHalted) {
		t.Errorf("expected ErrSessionHalted, got %v", err)
	}
}

func TestSessionService_HandleSample(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newSessionService(t, pub)
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")

	if err := svc.HandleSample(ctx, &domain.PositionSample{SessionID: snap.ID, Lat: 0, Lon: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.HandleSample(ctx, &domain.PositionSample{SessionID: snap.ID, Lat: 500, Lon: 0}); err != nil {
		t.Errorf("invalid samples should be dropped, got %v", err)
	}
	if err := svc.HandleSample(ctx, &domain.PositionSample{SessionID: "gone"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	events := pub.Events()
	if len(events) != 1 || events[0].Origin != domain.OriginNATS || events[0].Outcome.Kind != domain.OutcomeQuestionUnlocked {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestSessionService_PublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newSessionService(t, pub)
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")

	out, err := svc.IngestPosition(ctx, snap.ID, 0, 0, domain.OriginHTTP)
	if err != nil {
		t.Fatalf("publish errors must not surface: %v", err)
	}
	if out.Kind != domain.OutcomeQuestionUnlocked {
		t.Errorf("expected question_unlocked, got %s", out.Kind)
	}
}

func TestSessionService_ProximityRadiusOption(t *testing.T) {
	svc := newSessionService(t, nil, usecases.WithProximityRadius(500))
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")

	// ~157 m from waypoint 0
	out, _ := svc.IngestPosition(ctx, snap.ID, 0.001, 0.001, domain.OriginHTTP)
	if out.Kind != domain.OutcomeQuestionUnlocked {
		t.Errorf("expected unlock within 500 m, got %s", out.Kind)
	}
}

func TestSessionService_EvictIdle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	svc := newSessionService(t, nil, usecases.WithSessionTTL(time.Hour), usecases.WithClock(clock))
	ctx := context.Background()

	stale, _ := svc.Start(ctx, "plaza")
	advance(45 * time.Minute)
	fresh, _ := svc.Start(ctx, "plaza")
	advance(30 * time.Minute)

	if n := svc.EvictIdle(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := svc.Get(ctx, stale.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("stale session should be gone, got %v", err)
	}
	if _, err := svc.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session should remain, got %v", err)
	}
}

func TestSessionService_ConcurrentInput(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")

	var wg sync.WaitGroup
	unlocks := make(chan struct{}, 100)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.IngestPosition(ctx, snap.ID, 0, 0, domain.OriginNATS)
			if err == nil && out.Kind == domain.OutcomeQuestionUnlocked {
				unlocks <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(unlocks)

	n := 0
	for range unlocks {
		n++
	}
	if n != 1 {
		t.Errorf("expected exactly one unlock across concurrent samples, got %d", n)
	}
}

func TestSessionService_End(t *testing.T) {
	svc := newSessionService(t, nil)
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "plaza")
	if err := svc.End(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
	if svc.Len() != 0 {
		t.Errorf("expected no sessions, got %d", svc.Len())
	}
}
