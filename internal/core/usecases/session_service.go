package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/core/ports"
	"github.com/samirrijal/geoquest/internal/core/progression"
	"github.com/samirrijal/geoquest/internal/pkg/metrics"
	"github.com/samirrijal/geoquest/internal/pkg/telemetry"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

type session struct {
	mu        sync.Mutex
	id        string
	engine    *progression.Engine
	lastPos   *domain.GeoPoint
	haltedBy  string
	startedAt time.Time
	updatedAt time.Time
}

func (s *session) snapshot() domain.SessionSnapshot {
	game := s.engine.Bundle()
	snap := domain.SessionSnapshot{
		ID:            s.id,
		GameID:        game.ID,
		GameName:      game.Name,
		Area:          game.Area,
		State:         s.engine.State(),
		Finished:      s.engine.Finished(),
		Halted:        s.haltedBy != "",
		HaltReason:    s.haltedBy,
		WaypointCount: len(game.Waypoints),
		MaxScore:      game.MaxScore(),
		StartedAt:     s.startedAt,
		UpdatedAt:     s.updatedAt,
	}
	if wp, ok := s.engine.ActiveWaypoint(); ok {
		pub := wp.Public()
		if !snap.State.AwaitingAnswer {
			pub.Question = ""
		}
		snap.Active = &pub
	}
	if s.lastPos != nil {
		p := *s.lastPos
		snap.LastPosition = &p
	}
	return snap
}

// SessionService runs play sessions in memory. Each session is guarded by
// its own mutex so position samples and answers from any channel reach the
// engine one at a time.
type SessionService struct {
	games     ports.GameLoader
	publisher ports.EventPublisher
	radius    float64
	ttl       time.Duration
	tracer    trace.Tracer
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session

	stop     chan struct{}
	stopOnce sync.Once
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithProximityRadius sets the unlock distance in meters for new sessions.
func WithProximityRadius(meters float64) SessionOption {
	return func(s *SessionService) { s.radius = meters }
}

// WithSessionTTL sets the idle eviction timeout.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService creates a new SessionService. publisher may be nil.
func NewSessionService(games ports.GameLoader, publisher ports.EventPublisher, opts ...SessionOption) *SessionService {
	s := &SessionService{
		games:     games,
		publisher: publisher,
		radius:    progression.DefaultProximityRadius,
		ttl:       DefaultSessionTTL,
		tracer:    telemetry.Tracer(),
		now:       time.Now,
		sessions:  make(map[string]*session),
		stop:      make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start loads the game and opens a new session at waypoint 0.
func (s *SessionService) Start(ctx context.Context, gameID string) (domain.SessionSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session.Start", trace.WithAttributes(attribute.String("game.id", gameID)))
	defer span.End()

	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, domain.ErrDataLoadFailure) {
			return domain.SessionSnapshot{}, err
		}
		return domain.SessionSnapshot{}, fmt.Errorf("%w: %w", domain.ErrDataLoadFailure, err)
	}
	if err := game.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.SessionSnapshot{}, fmt.Errorf("%w: %w", domain.ErrDataLoadFailure, err)
	}

	now := s.now()
	sess := &session{
		id:        uuid.NewString(),
		engine:    progression.New(game, progression.WithProximityRadius(s.radius)),
		startedAt: now,
		updatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	span.SetAttributes(attribute.String("session.id", sess.id))
	slog.InfoContext(ctx, "session started", "session_id", sess.id, "game_id", game.ID, "waypoints", len(game.Waypoints))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// IngestPosition feeds one location sample into the session.
func (s *SessionService) IngestPosition(ctx context.Context, id string, lat, lon float64, origin string) (domain.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "session.IngestPosition", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("origin", origin),
	))
	defer span.End()

	if !domain.ValidPosition(lat, lon) {
		return domain.Outcome{}, fmt.Errorf("%w: lat=%v lon=%v", domain.ErrInvalidPosition, lat, lon)
	}

	sess, err := s.lookup(id)
	if err != nil {
		return domain.Outcome{}, err
	}

	sess.mu.Lock()
	if sess.haltedBy != "" {
		sess.mu.Unlock()
		return domain.Outcome{}, fmt.Errorf("%w: %s", domain.ErrSessionHalted, sess.haltedBy)
	}
	out := sess.engine.IngestPosition(lat, lon)
	if out.Kind != domain.OutcomeOutOfArea {
		sess.lastPos = &domain.GeoPoint{Lat: lat, Lon: lon}
	}
	sess.updatedAt = s.now()
	event := s.event(sess, origin, out)
	sess.mu.Unlock()

	span.SetAttributes(attribute.String("outcome", string(out.Kind)))
	metrics.PositionsIngested.WithLabelValues(origin, string(out.Kind)).Inc()
	if out.Kind == domain.OutcomeQuestionUnlocked {
		slog.DebugContext(ctx, "question unlocked", "session_id", id, "index", event.State.CurrentIndex)
	}

	s.publish(ctx, event)
	return out, nil
}

// SubmitAnswer checks an answer against the active waypoint.
func (s *SessionService) SubmitAnswer(ctx context.Context, id, answer, origin string) (domain.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "session.SubmitAnswer", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("origin", origin),
	))
	defer span.End()

	sess, err := s.lookup(id)
	if err != nil {
		return domain.Outcome{}, err
	}

	sess.mu.Lock()
	if sess.haltedBy != "" {
		sess.mu.Unlock()
		return domain.Outcome{}, fmt.Errorf("%w: %s", domain.ErrSessionHalted, sess.haltedBy)
	}
	out := sess.engine.SubmitAnswer(answer)
	sess.updatedAt = s.now()
	event := s.event(sess, origin, out)
	sess.mu.Unlock()

	span.SetAttributes(attribute.String("outcome", string(out.Kind)))
	metrics.AnswersSubmitted.WithLabelValues(string(out.Kind)).Inc()
	if out.Kind == domain.OutcomeGameFinished {
		metrics.GamesFinished.WithLabelValues(event.GameID).Inc()
		slog.InfoContext(ctx, "game finished", "session_id", id, "game_id", event.GameID, "total_score", out.TotalScore)
	}

	s.publish(ctx, event)
	return out, nil
}

// ReportLocationError halts the session: no further input is accepted.
// Halting an already halted session keeps the first reason.
func (s *SessionService) ReportLocationError(ctx context.Context, id, reason string) (domain.SessionSnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if reason == "" {
		reason = domain.ErrLocationUnavailable.Error()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.haltedBy == "" {
		sess.haltedBy = reason
		sess.updatedAt = s.now()
		metrics.SessionsHalted.WithLabelValues("location_unavailable").Inc()
		slog.WarnContext(ctx, "session halted", "session_id", id, "reason", reason)
	}
	return sess.snapshot(), nil
}

// Get returns the current view of a session.
func (s *SessionService) Get(_ context.Context, id string) (domain.SessionSnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// End discards a session.
func (s *SessionService) End(_ context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// HandleSample adapts IngestPosition to the broker subscription callback.
func (s *SessionService) HandleSample(ctx context.Context, sample *domain.PositionSample) error {
	_, err := s.IngestPosition(ctx, sample.SessionID, sample.Lat, sample.Lon, domain.OriginNATS)
	if errors.Is(err, domain.ErrInvalidPosition) {
		slog.WarnContext(ctx, "dropping invalid sample", "session_id", sample.SessionID, "error", err)
		return nil
	}
	return err
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunJanitor evicts idle sessions every interval until Close is called.
func (s *SessionService) RunJanitor(interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.EvictIdle()
		case <-s.stop:
			return
		}
	}
}

// EvictIdle removes sessions not touched within the TTL and returns how
// many were removed.
func (s *SessionService) EvictIdle() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.updatedAt.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("evicted idle sessions", "count", removed)
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return removed
}

// Close stops the janitor.
func (s *SessionService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *SessionService) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// event must be called with sess.mu held.
func (s *SessionService) event(sess *session, origin string, out domain.Outcome) *domain.SessionEvent {
	return &domain.SessionEvent{
		SessionID: sess.id,
		GameID:    sess.engine.Bundle().ID,
		Origin:    origin,
		Outcome:   out,
		State:     sess.engine.State(),
		Time:      sess.updatedAt,
	}
}

func (s *SessionService) publish(ctx context.Context, event *domain.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		slog.DebugContext(ctx, "publish session event failed", "session_id", event.SessionID, "error", err)
	}
}
