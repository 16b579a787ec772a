package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Participation links a user to a trip. There is at most one per (trip, user).
type Participation struct {
	TripID             uuid.UUID
	UserID             uuid.UUID
	UserName           string // filled by list queries for display
	EditingPermissions bool
	JoinedAt           time.Time
}

// Access is what a given user may do with a given trip.
type Access struct {
	UserID        uuid.UUID
	IsCreator     bool
	IsParticipant bool
	CanEdit       bool
}

// NewAccess derives a user's access from the trip and its participation rows.
func NewAccess(trip Trip, userID uuid.UUID, participants []Participation) Access {
	a := Access{UserID: userID, IsCreator: trip.CreatorID == userID}
	if p := FindParticipation(participants, userID); p != nil {
		a.IsParticipant = true
		a.CanEdit = p.EditingPermissions
	}
	a.CanEdit = a.CanEdit || a.IsCreator
	return a
}

// CanCancelOrClose reports whether the user may cancel or close the trip:
// a participant who is also the creator or an editor.
func (a Access) CanCancelOrClose() bool {
	return a.IsParticipant && (a.IsCreator || a.CanEdit)
}

// FindParticipation returns the row for userID, or nil.
func FindParticipation(participants []Participation, userID uuid.UUID) *Participation {
	for i := range participants {
		if participants[i].UserID == userID {
			return &participants[i]
		}
	}
	return nil
}

// HasEditingPermissions is true for the trip creator and for any participant
// whose row carries editing permissions.
func HasEditingPermissions(trip Trip, userID uuid.UUID, participants []Participation) bool {
	return NewAccess(trip, userID, participants).CanEdit
}

// CountEditors returns the number of participation rows with editing permissions.
func CountEditors(participants []Participation) int {
	n := 0
	for _, p := range participants {
		if p.EditingPermissions {
			n++
		}
	}
	return n
}

// IsOnlyEditor is true when the user has editing permission and exactly one
// participation row on the trip carries editing permissions.
func IsOnlyEditor(trip Trip, userID uuid.UUID, participants []Participation) bool {
	return HasEditingPermissions(trip, userID, participants) && CountEditors(participants) == 1
}

// Join decides whether userID may join the trip and returns the row to upsert.
// The caller must run ApplyCapacity first so a full trip is already closed.
// Every joiner, new or returning, gets editing permissions.
func Join(trip Trip, userID uuid.UUID, existing *Participation, now time.Time) (Participation, error) {
	if trip.Status != StatusOpen {
		return Participation{}, fmt.Errorf("%w: this trip is closed for new participants", ErrTripClosed)
	}
	if existing != nil {
		p := *existing
		p.EditingPermissions = true
		return p, nil
	}
	return Participation{
		TripID:             trip.ID,
		UserID:             userID,
		EditingPermissions: true,
		JoinedAt:           now,
	}, nil
}

// CheckLeave rejects a leave when the leaving user holds the only editing
// permission on the trip. A nil existing row means there is nothing to leave.
func CheckLeave(existing *Participation, participants []Participation) error {
	if existing == nil {
		return nil
	}
	if existing.EditingPermissions && CountEditors(participants) == 1 {
		return fmt.Errorf("%w: you are the only editor of this trip, assign another editor before leaving", ErrSoleEditor)
	}
	return nil
}

// ApplyEditorSet returns a copy of participants where exactly the listed users
// hold editing permissions. Ids that are not participants are ignored.
// The update is all-or-nothing: if no participant would remain an editor the
// whole set is rejected.
func ApplyEditorSet(participants []Participation, editorIDs []uuid.UUID) ([]Participation, error) {
	keep := make(map[uuid.UUID]struct{}, len(editorIDs))
	for _, id := range editorIDs {
		keep[id] = struct{}{}
	}

	out := make([]Participation, len(participants))
	editors := 0
	for i, p := range participants {
		_, ok := keep[p.UserID]
		p.EditingPermissions = ok
		if ok {
			editors++
		}
		out[i] = p
	}
	if len(participants) > 0 && editors == 0 {
		return nil, fmt.Errorf("%w: at least one participant must keep editing permissions", ErrValidation)
	}
	return out, nil
}
