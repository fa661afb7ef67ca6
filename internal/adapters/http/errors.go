package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoquest/internal/core/domain"
)

// Player-facing messages for the fatal conditions.
const (
	msgDataLoadFailure     = "Failed to load game data."
	msgLocationUnavailable = "Unable to retrieve your location."
	msgLocationUnsupported = "Geolocation is not supported by your browser."
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errFromDomain maps service errors to API errors. Not-found is checked
// before load failure since a session start for an unknown game carries both.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		return errNotFound(c, "game not found")
	case errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, "session not found")
	case errors.Is(err, domain.ErrInvalidPosition):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrInvalidBundle) && !errors.Is(err, domain.ErrDataLoadFailure):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrSessionHalted):
		return newError(c, 409, "location_unavailable", msgLocationUnavailable)
	case errors.Is(err, domain.ErrDataLoadFailure):
		LoggerFromCtx(c.UserContext()).Warn("game data load failed", "error", err)
		return newError(c, 502, "data_load_failure", msgDataLoadFailure)
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
		return errInternal(c, "internal error")
	}
}
