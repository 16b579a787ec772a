// Package domain contains the core data types and the pure rules layer of the
// trip planner: lifecycle transitions, participation and permission checks,
// stop and budget recalculation, and trip visibility.
// Nothing in this package performs I/O; services load entities, hand them to
// these functions, and persist what comes back.
package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Status is the single authoritative lifecycle state of a trip.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusFinalized Status = "finalized"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusFinalized, StatusCancelled:
		return true
	}
	return false
}

// StatusFromFlags collapses the legacy is_open / is_cancelled / is_finalized
// triple into one status using the display priority
// cancelled > closed > finalized > open.
func StatusFromFlags(isOpen, isCancelled, isFinalized bool) Status {
	switch {
	case isCancelled:
		return StatusCancelled
	case !isOpen:
		return StatusClosed
	case isFinalized:
		return StatusFinalized
	default:
		return StatusOpen
	}
}

// Flags expands a status into the is_open / is_cancelled / is_finalized view
// that clients of the API still read. Finalizing clears is_open, so a
// finalized trip reports (false, false, true). StatusFromFlags reads that
// triple as closed; it is not the inverse of Flags and Status stays the
// authoritative value.
func (s Status) Flags() (isOpen, isCancelled, isFinalized bool) {
	return s == StatusOpen, s == StatusCancelled, s == StatusFinalized
}

// Trip is the aggregate root of the lifecycle. Stops and participations
// belong to a trip and are deleted with it.
//
// The date is either a single DefiniteDate or a StartDate/EndDate range,
// never both.
type Trip struct {
	ID                uuid.UUID
	Title             string
	Description       string
	CreatorID         uuid.UUID
	DestinationCityID *uuid.UUID
	DefiniteDate      *time.Time
	StartDate         *time.Time
	EndDate           *time.Time
	Budget            *float64
	MaxParticipants   *int
	Status            Status
	StatusChangedAt   time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TripDraft carries the editable fields of a trip from the HTTP layer.
//
// ReplaceStops distinguishes "no stops submitted" (keep the current set) from
// "an empty stop list submitted" (delete every stop). EditorIDs is nil when the
// caller did not submit a permission list.
type TripDraft struct {
	Title             string
	Description       string
	DestinationCityID *uuid.UUID
	DefiniteDate      *time.Time
	StartDate         *time.Time
	EndDate           *time.Time
	Budget            *float64
	MaxParticipants   *int
	Stops             []StopInput
	ReplaceStops      bool
	EditorIDs         []uuid.UUID
}

const (
	maxTitleLen       = 100
	maxDescriptionLen = 256
)

// Validate enforces the field rules shared by create and update.
func (d TripDraft) Validate() error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, maxTitleLen)
	}
	if utf8.RuneCountInString(d.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", ErrValidation, maxDescriptionLen)
	}
	if d.DefiniteDate != nil && (d.StartDate != nil || d.EndDate != nil) {
		return fmt.Errorf("%w: a trip has either a definite date or a date range, not both", ErrValidation)
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	if d.Budget != nil && *d.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrValidation)
	}
	if d.MaxParticipants != nil && *d.MaxParticipants < 1 {
		return fmt.Errorf("%w: max_participants must be at least 1", ErrValidation)
	}
	return nil
}

// Apply copies the draft's trip-level fields onto t. Stops, budget
// derivation and permissions are handled separately.
func (d TripDraft) Apply(t *Trip) {
	t.Title = strings.TrimSpace(d.Title)
	t.Description = d.Description
	t.DestinationCityID = d.DestinationCityID
	t.DefiniteDate = d.DefiniteDate
	t.StartDate = d.StartDate
	t.EndDate = d.EndDate
	t.Budget = d.Budget
	t.MaxParticipants = d.MaxParticipants
}

// TripDetail is what a viewer sees on the trip page.
type TripDetail struct {
	Trip         Trip
	Stops        []Stop
	Participants []Participation
	Access       Access
	IsOnlyEditor bool
}
