package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
)

// InviteRequest is the body of POST /trips/{tripId}/invitations.
type InviteRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// InvitationResponse is a pending invitation of the caller.
type InvitationResponse struct {
	TripID    uuid.UUID `json:"trip_id"`
	TripTitle string    `json:"trip_title"`
	InvitedBy uuid.UUID `json:"invited_by"`
	InvitedAt time.Time `json:"invited_at"`
}

// JoinTrip handles POST /trips/{tripId}/join.
func (s *Server) JoinTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}

	p, err := s.parts.Join(r.Context(), userID, tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participantToResponse(p))
}

// LeaveTrip handles POST /trips/{tripId}/leave.
// Leaving a trip the caller is not in succeeds without effect.
func (s *Server) LeaveTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}

	if err := s.parts.Leave(r.Context(), userID, tripID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InviteToTrip handles POST /trips/{tripId}/invitations.
func (s *Server) InviteToTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}
	var body InviteRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.parts.Invite(r.Context(), userID, tripID, body.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInvitations handles GET /invitations.
func (s *Server) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	invs, err := s.parts.ListInvitations(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[InvitationResponse]{
		Data: mapSlice(invs, func(i domain.Invitation) InvitationResponse {
			return InvitationResponse{TripID: i.TripID, TripTitle: i.TripTitle, InvitedBy: i.InvitedBy, InvitedAt: i.InvitedAt}
		}),
	})
}

// AcceptInvitation handles POST /invitations/{tripId}/accept. Accepting is a
// join, so it fails the same way on a closed or full trip.
func (s *Server) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "invitation")
	if !ok {
		return
	}

	p, err := s.parts.AcceptInvitation(r.Context(), userID, tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participantToResponse(p))
}

// DeclineInvitation handles DELETE /invitations/{tripId}.
func (s *Server) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "invitation")
	if !ok {
		return
	}

	if err := s.parts.DeclineInvitation(r.Context(), userID, tripID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
