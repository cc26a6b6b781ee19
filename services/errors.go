package services

import (
	"errors"
	"fmt"
)

// Typed failures shared across services. Handlers match on these to pick the
// HTTP response; services never retry and never leave partial writes behind.
var (
	// ErrUserNotFound is returned when a referenced user id does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrSightingNotFound is returned when a referenced sighting does not exist.
	ErrSightingNotFound = errors.New("sighting not found")

	// ErrLimitExceeded is returned when a plan's usage or storage cap is reached.
	ErrLimitExceeded = errors.New("plan limit exceeded")

	// ErrInvalidResponseShape is returned when the AI response lacks a primary
	// bird entry with at least a name, or cannot be parsed as JSON at all.
	ErrInvalidResponseShape = errors.New("AI response is missing a primary bird entry")

	// ErrSchemaViolation is returned when a normalized record still fails
	// schema validation. Guards against malformed nested types; should not
	// occur once defaulting has run.
	ErrSchemaViolation = errors.New("normalized identification failed schema validation")

	// ErrNotOwner is returned when a caller tries to modify a record that
	// belongs to a different user.
	ErrNotOwner = errors.New("record belongs to a different user")
)

// IdentificationFailedError signals that the AI collaborator explicitly
// reported it could not identify a subject, carrying its message through to
// the caller.
type IdentificationFailedError struct {
	Message string
}

func (e *IdentificationFailedError) Error() string {
	if e.Message == "" {
		return "identification failed"
	}
	return fmt.Sprintf("identification failed: %s", e.Message)
}
