package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing title, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the acting user lacks the role an operation
// requires (not the creator, not an editor, not a participant).
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated is returned when no user identity is attached to the request.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrConflict is returned when a write collides with existing state,
// e.g. registering an email that is already in use.
var ErrConflict = errors.New("conflict")

// ErrInvalidTransition is returned when a lifecycle action is not allowed
// from the trip's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrTripClosed is returned when a user tries to join a trip that is not open.
var ErrTripClosed = errors.New("trip is closed")

// ErrSoleEditor is returned when the only participant with editing
// permissions tries to leave the trip.
var ErrSoleEditor = errors.New("sole editor")

// ErrIncompleteStops is returned by finalize when at least one stop is
// missing a required field. The concrete error is *IncompleteStopsError.
var ErrIncompleteStops = errors.New("incomplete stops")

// MissingStopFields names the required fields a single stop is missing.
type MissingStopFields struct {
	StopID   uuid.UUID
	Position int
	Name     string
	Fields   []string
}

// IncompleteStopsError lists every stop that blocks finalization.
type IncompleteStopsError struct {
	Stops []MissingStopFields
}

func (e *IncompleteStopsError) Error() string {
	parts := make([]string, 0, len(e.Stops))
	for _, s := range e.Stops {
		parts = append(parts, fmt.Sprintf("stop %d missing %s", s.Position+1, strings.Join(s.Fields, ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrIncompleteStops, strings.Join(parts, "; "))
}

func (e *IncompleteStopsError) Unwrap() error { return ErrIncompleteStops }
