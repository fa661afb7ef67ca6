package domain

// OutcomeKind names the result of an engine operation.
type OutcomeKind string

const (
	OutcomeOutOfArea        OutcomeKind = "out_of_area"
	OutcomeInArea           OutcomeKind = "in_area"
	OutcomeQuestionUnlocked OutcomeKind = "question_unlocked"
	OutcomeQuestionLocked   OutcomeKind = "question_locked"
	OutcomeCorrect          OutcomeKind = "correct"
	OutcomeIncorrect        OutcomeKind = "incorrect"
	OutcomeGameFinished     OutcomeKind = "game_finished"
	OutcomeGameComplete     OutcomeKind = "game_complete"
)

// Outcome is what the engine hands back to its caller. Only the fields
// relevant to Kind are set.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// Question is set on question_unlocked.
	Question string `json:"question,omitempty"`

	// Next is the new active waypoint, set on correct.
	Next *PublicWaypoint `json:"next,omitempty"`

	// TotalScore is the running score after the operation.
	TotalScore int `json:"total_score"`

	// Distance in meters to the active waypoint, when one was computed.
	Distance *float64 `json:"distance_m,omitempty"`
}

// Terminal reports whether the outcome means the game is over.
func (o Outcome) Terminal() bool {
	return o.Kind == OutcomeGameFinished || o.Kind == OutcomeGameComplete
}
