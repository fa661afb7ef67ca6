package domain

import (
	"fmt"
	"time"
)

// Waypoint is a fixed point the player must physically reach to unlock its question.
type Waypoint struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Points   int     `json:"points"`
}

// Location returns the waypoint coordinates.
func (w Waypoint) Location() GeoPoint {
	return GeoPoint{Lat: w.Lat, Lon: w.Lon}
}

// Public strips the expected answer.
func (w Waypoint) Public() PublicWaypoint {
	return PublicWaypoint{Location: w.Location(), Question: w.Question, Points: w.Points}
}

// GameBundle is the immutable game definition: a play area and the ordered
// waypoints. Waypoint order is visit order.
type GameBundle struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Area      Area       `json:"area"`
	Waypoints []Waypoint `json:"waypoints"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate checks the bundle can be played. Zero waypoints is allowed; such a
// game is complete from the start.
func (g *GameBundle) Validate() error {
	for _, v := range []float64{g.Area.X1, g.Area.Y1, g.Area.X2, g.Area.Y2} {
		if !validCoord(v) {
			return fmt.Errorf("%w: area corner is not a finite number", ErrInvalidBundle)
		}
	}
	for i, w := range g.Waypoints {
		if !validCoord(w.Lat) || !validCoord(w.Lon) {
			return fmt.Errorf("%w: waypoint %d has non-finite coordinates", ErrInvalidBundle, i)
		}
		if w.Points < 0 {
			return fmt.Errorf("%w: waypoint %d has negative points", ErrInvalidBundle, i)
		}
		if w.Question == "" {
			return fmt.Errorf("%w: waypoint %d has no question", ErrInvalidBundle, i)
		}
	}
	return nil
}

// MaxScore is the score of a perfect run.
func (g *GameBundle) MaxScore() int {
	total := 0
	for _, w := range g.Waypoints {
		total += w.Points
	}
	return total
}

// Public returns the bundle without answers.
func (g *GameBundle) Public() PublicGame {
	return PublicGame{
		ID:            g.ID,
		Name:          g.Name,
		Area:          g.Area,
		Bounds:        g.Area.Bounds(),
		WaypointCount: len(g.Waypoints),
		MaxScore:      g.MaxScore(),
	}
}

// PublicWaypoint is what a player may see of a waypoint.
type PublicWaypoint struct {
	Location GeoPoint `json:"location"`
	Question string   `json:"question,omitempty"`
	Points   int      `json:"points"`
}

// PublicGame is the player-facing summary of a bundle.
type PublicGame struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Area          Area   `json:"area"`
	Bounds        Bounds `json:"bounds"`
	WaypointCount int    `json:"waypoint_count"`
	MaxScore      int    `json:"max_score"`
}

// ProgressionState is the mutable part of a play session.
type ProgressionState struct {
	CurrentIndex   int  `json:"current_index"`
	TotalScore     int  `json:"total_score"`
	AwaitingAnswer bool `json:"awaiting_answer"`
}

// PositionSample is one reading from a location provider.
type PositionSample struct {
	SessionID string    `json:"session_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Time      time.Time `json:"time"`
}

// Event origins.
const (
	OriginHTTP      = "http"
	OriginWebSocket = "ws"
	OriginNATS      = "nats"
)

// SessionEvent records an engine outcome for fan-out to observers.
type SessionEvent struct {
	SessionID string           `json:"session_id"`
	GameID    string           `json:"game_id"`
	Origin    string           `json:"origin"`
	Outcome   Outcome          `json:"outcome"`
	State     ProgressionState `json:"state"`
	Time      time.Time        `json:"time"`
}

// SessionSnapshot is the observable view of one play session.
type SessionSnapshot struct {
	ID       string           `json:"id"`
	GameID   string           `json:"game_id"`
	GameName string           `json:"game_name,omitempty"`
	Area     Area             `json:"area"`
	State    ProgressionState `json:"state"`
	Finished bool             `json:"finished"`

	// Active is the waypoint being approached. Its question is only
	// present while an answer is awaited.
	Active *PublicWaypoint `json:"active,omitempty"`

	// LastPosition is the most recent sample that fell inside the area.
	LastPosition *GeoPoint `json:"last_position,omitempty"`

	Halted     bool   `json:"halted"`
	HaltReason string `json:"halt_reason,omitempty"`

	WaypointCount int       `json:"waypoint_count"`
	MaxScore      int       `json:"max_score"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
