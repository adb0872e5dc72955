package domain

import "errors"

var (
	// ErrMissingCredentials is returned before any provider call when the
	// API key or the engine ID is empty.
	ErrMissingCredentials = errors.New("missing search credentials (api key and engine id are required)")

	// ErrEmptyQuery is returned when there is nothing to search for.
	ErrEmptyQuery = errors.New("empty domain or query")

	// ErrUnknownMode is returned for a search mode outside the known set.
	ErrUnknownMode = errors.New("unknown search mode")

	// ErrSessionNotFound is returned when a session is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRecordOutOfRange is returned for a record index outside the session.
	ErrRecordOutOfRange = errors.New("record index out of range")
)
