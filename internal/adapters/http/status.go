package http

import (
	"fmt"

	"github.com/samirrijal/geoquest/internal/core/domain"
)

// statusText is the message shown to the player for an outcome.
func statusText(out domain.Outcome) string {
	switch out.Kind {
	case domain.OutcomeOutOfArea:
		return "You are not on the map."
	case domain.OutcomeInArea, domain.OutcomeQuestionUnlocked:
		return "You are on the map."
	case domain.OutcomeQuestionLocked:
		return "Reach the point to unlock its question."
	case domain.OutcomeIncorrect:
		return "Wrong answer."
	case domain.OutcomeCorrect:
		return "Correct! Proceed to the next point."
	case domain.OutcomeGameFinished, domain.OutcomeGameComplete:
		return fmt.Sprintf("Congrats you finished! Total points: %d", out.TotalScore)
	}
	return ""
}

// locationErrorText picks the message for a location provider failure.
func locationErrorText(reason string) string {
	if reason == "unsupported" {
		return msgLocationUnsupported
	}
	return msgLocationUnavailable
}

// OutcomeResponse is the body returned for position and answer submissions.
type OutcomeResponse struct {
	domain.Outcome
	StatusText string                  `json:"status_text"`
	Session    *domain.SessionSnapshot `json:"session,omitempty"`
}
