package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusEvent is one row of a trip's status history.
// ActorID is nil for automatic capacity closure.
type StatusEvent struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	ActorID   *uuid.UUID
	Action    Action
	From      Status
	To        Status
	CreatedAt time.Time
}

// NewStatusEvent builds the history row for a changed transition.
func NewStatusEvent(tripID uuid.UUID, actor *uuid.UUID, tr Transition) StatusEvent {
	return StatusEvent{
		TripID:    tripID,
		ActorID:   actor,
		Action:    tr.Action,
		From:      tr.From,
		To:        tr.To,
		CreatedAt: tr.At,
	}
}

// EventKind names a trip event on the message bus.
type EventKind string

const (
	EventTripCreated    EventKind = "created"
	EventTripUpdated    EventKind = "updated"
	EventStatusChanged  EventKind = "status_changed"
	EventJoined         EventKind = "joined"
	EventLeft           EventKind = "left"
	EventInvited        EventKind = "invited"
	EventCommentAdded   EventKind = "comment_added"
	EventMeetupCreated  EventKind = "meetup_created"
	EventMeetupAdvanced EventKind = "meetup_advanced"
)

// TripEvent is published after a transaction commits.
type TripEvent struct {
	Kind       EventKind  `json:"kind"`
	TripID     uuid.UUID  `json:"trip_id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	SubjectID  *uuid.UUID `json:"subject_id,omitempty"`
	Action     Action     `json:"action,omitempty"`
	FromStatus Status     `json:"from_status,omitempty"`
	ToStatus   Status     `json:"to_status,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
