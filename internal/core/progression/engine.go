// Package progression turns position samples and answer submissions into
// waypoint progression for a single play session.
//
// An Engine is plain in-memory state with no locking. Callers that feed it
// from more than one goroutine must serialize access themselves.
package progression

import (
	"strings"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/pkg/geospatial"
)

// DefaultProximityRadius is the unlock distance in meters.
const DefaultProximityRadius = 20.0

// Engine owns the progression state of one session.
type Engine struct {
	bundle *domain.GameBundle
	state  domain.ProgressionState
	radius float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithProximityRadius overrides the unlock distance. Non-positive values are ignored.
func WithProximityRadius(meters float64) Option {
	return func(e *Engine) {
		if meters > 0 {
			e.radius = meters
		}
	}
}

// New starts a session at waypoint 0 with a zero score.
func New(bundle *domain.GameBundle, opts ...Option) *Engine {
	return Restore(bundle, domain.ProgressionState{}, opts...)
}

// Restore creates an engine from a previously observed state.
func Restore(bundle *domain.GameBundle, state domain.ProgressionState, opts ...Option) *Engine {
	e := &Engine{bundle: bundle, state: state, radius: DefaultProximityRadius}
	for _, o := range opts {
		o(e)
	}
	if e.finished() {
		e.state.AwaitingAnswer = false
	}
	return e
}

// State returns a copy of the current progression state.
func (e *Engine) State() domain.ProgressionState {
	return e.state
}

// Bundle returns the game the engine is playing.
func (e *Engine) Bundle() *domain.GameBundle {
	return e.bundle
}

// Finished reports whether every waypoint has been answered.
func (e *Engine) Finished() bool {
	return e.finished()
}

// ActiveWaypoint returns the waypoint the player is heading to.
func (e *Engine) ActiveWaypoint() (domain.Waypoint, bool) {
	if e.finished() {
		return domain.Waypoint{}, false
	}
	return e.bundle.Waypoints[e.state.CurrentIndex], true
}

// IngestPosition processes one position sample.
func (e *Engine) IngestPosition(lat, lon float64) domain.Outcome {
	if !e.bundle.Area.Contains(lat, lon) {
		return e.outcome(domain.OutcomeOutOfArea)
	}
	if e.finished() {
		return e.outcome(domain.OutcomeGameComplete)
	}

	wp := e.bundle.Waypoints[e.state.CurrentIndex]
	dist := geospatial.Haversine(lat, lon, wp.Lat, wp.Lon)

	out := e.outcome(domain.OutcomeInArea)
	out.Distance = &dist

	// Already awaiting: stay put, never re-emit the unlock.
	if dist <= e.radius && !e.state.AwaitingAnswer {
		e.state.AwaitingAnswer = true
		out.Kind = domain.OutcomeQuestionUnlocked
		out.Question = wp.Question
	}
	return out
}

// SubmitAnswer checks raw against the active waypoint's answer. Leading and
// trailing whitespace is ignored; the comparison is case-sensitive.
func (e *Engine) SubmitAnswer(raw string) domain.Outcome {
	if e.finished() {
		return e.outcome(domain.OutcomeGameComplete)
	}
	if !e.state.AwaitingAnswer {
		return e.outcome(domain.OutcomeQuestionLocked)
	}

	wp := e.bundle.Waypoints[e.state.CurrentIndex]
	if strings.TrimSpace(raw) != wp.Answer {
		return e.outcome(domain.OutcomeIncorrect)
	}

	e.state.TotalScore += wp.Points
	e.state.CurrentIndex++
	e.state.AwaitingAnswer = false

	if e.finished() {
		return e.outcome(domain.OutcomeGameFinished)
	}
	out := e.outcome(domain.OutcomeCorrect)
	next := e.bundle.Waypoints[e.state.CurrentIndex].Public()
	next.Question = ""
	out.Next = &next
	return out
}

func (e *Engine) finished() bool {
	return e.state.CurrentIndex >= len(e.bundle.Waypoints)
}

func (e *Engine) outcome(kind domain.OutcomeKind) domain.Outcome {
	return domain.Outcome{Kind: kind, TotalScore: e.state.TotalScore}
}
