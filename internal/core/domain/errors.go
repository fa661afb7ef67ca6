package domain

import "errors"

var (
	// ErrDataLoadFailure means the game bundle could not be fetched or parsed.
	// Fatal to the session: the game never starts.
	ErrDataLoadFailure = errors.New("data load failure")

	// ErrLocationUnavailable means the location provider is missing or failed.
	ErrLocationUnavailable = errors.New("location unavailable")

	ErrInvalidBundle   = errors.New("invalid game bundle")
	ErrGameNotFound    = errors.New("game not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidPosition = errors.New("invalid position")

	// ErrSessionHalted is returned for input arriving after a fatal location error.
	ErrSessionHalted = errors.New("session halted")
)
