package domain

import (
	"fmt"
	"time"
)

// Action is a lifecycle command applied to a trip.
type Action string

const (
	ActionFinalize Action = "finalize"
	ActionCancel   Action = "cancel"
	ActionClose    Action = "close"
	ActionReopen   Action = "reopen"
	// ActionCapacity is the automatic closure when the trip fills up.
	ActionCapacity Action = "capacity"
)

// Policy holds the configurable parts of the state machine.
// Finalized and cancelled trips are terminal unless a flag allows reopening.
type Policy struct {
	ReopenFinalized bool
	ReopenCancelled bool
}

// Transition records the outcome of a lifecycle action.
// Changed is false when the action was an allowed no-op (closing a closed trip).
type Transition struct {
	Action  Action
	From    Status
	To      Status
	Changed bool
	At      time.Time
}

type edge struct {
	from   Status
	action Action
	to     Status
}

var transitionsTable = []edge{
	{StatusOpen, ActionFinalize, StatusFinalized},
	{StatusClosed, ActionFinalize, StatusFinalized},

	{StatusOpen, ActionCancel, StatusCancelled},
	{StatusClosed, ActionCancel, StatusCancelled},
	{StatusCancelled, ActionCancel, StatusCancelled},

	{StatusOpen, ActionClose, StatusClosed},
	{StatusClosed, ActionClose, StatusClosed},

	{StatusClosed, ActionReopen, StatusOpen},
	{StatusOpen, ActionReopen, StatusOpen},

	{StatusOpen, ActionCapacity, StatusClosed},
}

// next returns the target status for (from, action) under the policy.
func (p Policy) next(from Status, action Action) (Status, bool) {
	if action == ActionReopen {
		if from == StatusFinalized && p.ReopenFinalized {
			return StatusOpen, true
		}
		if from == StatusCancelled && p.ReopenCancelled {
			return StatusOpen, true
		}
	}
	for _, e := range transitionsTable {
		if e.from == from && e.action == action {
			return e.to, true
		}
	}
	return "", false
}

// authorize checks the role an explicit action requires.
func authorize(action Action, a Access) error {
	switch action {
	case ActionFinalize:
		if !a.CanEdit {
			return fmt.Errorf("%w: only the creator or an editor can finalize this trip", ErrForbidden)
		}
	case ActionCancel, ActionClose:
		if !a.CanCancelOrClose() {
			return fmt.Errorf("%w: only a participant with editing permissions can %s this trip", ErrForbidden, action)
		}
	case ActionReopen:
		if !a.IsCreator {
			return fmt.Errorf("%w: only the trip creator can reopen it", ErrForbidden)
		}
	}
	return nil
}

// Apply runs an explicit action against trip on behalf of the user described
// by access. stops is only consulted for finalize. On success the trip's status
// and status timestamp are updated in place; on any error trip is untouched.
func (p Policy) Apply(trip *Trip, action Action, access Access, stops []Stop, now time.Time) (Transition, error) {
	if err := authorize(action, access); err != nil {
		return Transition{}, err
	}

	to, ok := p.next(trip.Status, action)
	if !ok {
		return Transition{}, fmt.Errorf("%w: cannot %s a %s trip", ErrInvalidTransition, action, trip.Status)
	}

	if action == ActionFinalize {
		if err := CheckStopsComplete(stops); err != nil {
			return Transition{}, err
		}
	}

	return move(trip, action, to, now), nil
}

// ApplyCapacity closes an open trip whose participant count has reached
// MaxParticipants. It reports whether the trip changed.
func ApplyCapacity(trip *Trip, participantCount int, now time.Time) (Transition, bool) {
	if trip.MaxParticipants == nil || participantCount < *trip.MaxParticipants {
		return Transition{}, false
	}
	if trip.Status != StatusOpen {
		return Transition{}, false
	}
	return move(trip, ActionCapacity, StatusClosed, now), true
}

func move(trip *Trip, action Action, to Status, now time.Time) Transition {
	tr := Transition{Action: action, From: trip.Status, To: to, At: now}
	if trip.Status != to {
		tr.Changed = true
		trip.Status = to
		trip.StatusChangedAt = now
	}
	return tr
}
