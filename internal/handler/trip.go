package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/internal/domain"
)

// TripRequest is the body of POST /trips and PUT /trips/{tripId}.
//
// Stops and EditorIDs are pointers so an absent key can be told apart from an
// empty list: no "stops" key keeps the current stops, "stops": [] deletes them.
type TripRequest struct {
	Title             string              `json:"title" validate:"required,max=100"`
	Description       string              `json:"description" validate:"max=256"`
	DestinationCityID *uuid.UUID          `json:"destination_city_id"`
	DefiniteDate      *openapi_types.Date `json:"definite_date"`
	StartDate         *openapi_types.Date `json:"start_date"`
	EndDate           *openapi_types.Date `json:"end_date"`
	Budget            *float64            `json:"budget" validate:"omitempty,gte=0"`
	MaxParticipants   *int                `json:"max_participants" validate:"omitempty,gte=1"`
	Stops             *[]StopRequest      `json:"stops"`
	EditorIDs         *[]uuid.UUID        `json:"editor_ids"`
}

// StopRequest is one submitted stop. Time and budget are parsed leniently:
// a value that does not parse is stored as null instead of failing the request.
type StopRequest struct {
	Name            string      `json:"name"`
	Place           string      `json:"place"`
	Time            string      `json:"time"`
	BudgetPerPerson looseString `json:"budget_per_person"`
	Notes           string      `json:"notes"`
	Type            string      `json:"type"`
	Position        *int        `json:"position"`
}

// looseString accepts a JSON string, number or null. Form-style clients send
// budgets either way.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		// Anything else is treated like an unparseable budget.
		*s = ""
		return nil
	}
	*s = looseString(num.String())
	return nil
}

// TripResponse is a trip as returned by the API. The three flags are derived
// from Status for clients that still read them.
type TripResponse struct {
	ID                uuid.UUID           `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	CreatorID         uuid.UUID           `json:"creator_id"`
	DestinationCityID *uuid.UUID          `json:"destination_city_id,omitempty"`
	DefiniteDate      *openapi_types.Date `json:"definite_date,omitempty"`
	StartDate         *openapi_types.Date `json:"start_date,omitempty"`
	EndDate           *openapi_types.Date `json:"end_date,omitempty"`
	Budget            *float64            `json:"budget,omitempty"`
	MaxParticipants   *int                `json:"max_participants,omitempty"`
	Status            domain.Status       `json:"status"`
	IsOpen            bool                `json:"is_open"`
	IsCancelled       bool                `json:"is_cancelled"`
	IsFinalized       bool                `json:"is_finalized"`
	StatusChangedAt   time.Time           `json:"status_changed_at"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// StopResponse is a stored stop.
type StopResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Place           string    `json:"place"`
	Time            *string   `json:"time"`
	BudgetPerPerson *float64  `json:"budget_per_person"`
	Notes           string    `json:"notes"`
	Type            string    `json:"type"`
	Position        int       `json:"position"`
}

// ParticipantResponse is one participation row.
type ParticipantResponse struct {
	TripID             uuid.UUID `json:"trip_id"`
	UserID             uuid.UUID `json:"user_id"`
	UserName           string    `json:"user_name,omitempty"`
	EditingPermissions bool      `json:"editing_permissions"`
	JoinedAt           time.Time `json:"joined_at"`
}

// AccessResponse tells the caller what they may do with the trip.
type AccessResponse struct {
	IsCreator     bool `json:"is_creator"`
	IsParticipant bool `json:"is_participant"`
	CanEdit       bool `json:"can_edit"`
	IsOnlyEditor  bool `json:"is_only_editor"`
}

// TripDetailResponse is the trip page: the trip plus its stops,
// participants and the caller's access.
type TripDetailResponse struct {
	TripResponse
	Stops        []StopResponse        `json:"stops"`
	Participants []ParticipantResponse `json:"participants"`
	Access       AccessResponse        `json:"access"`
}

// StatusEventResponse is one entry of a trip's status history.
type StatusEventResponse struct {
	ID        uuid.UUID     `json:"id"`
	Action    domain.Action `json:"action"`
	From      domain.Status `json:"from_status"`
	To        domain.Status `json:"to_status"`
	ActorID   *uuid.UUID    `json:"actor_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// ListTrips handles GET /trips.
// Query: filter=all|joined|explore, destination, start_date, end_date,
// budget=1|2|3, page, limit. Values that do not parse are ignored.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := domain.ParseTripFilter(domain.FilterParams{
		Filter:      q.Get("filter"),
		Destination: q.Get("destination"),
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		Budget:      q.Get("budget"),
	})
	params := paginationFrom(r)

	page, err := s.trips.List(r.Context(), userID, filter, params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[TripResponse]{
		Data:       mapSlice(page.Items, tripToResponse),
		Pagination: &Pagination{Page: params.Page, Limit: params.Limit, Total: page.Total},
	})
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body TripRequest
	if !decodeBody(w, r, &body) {
		return
	}

	detail, err := s.trips.Create(r.Context(), userID, requestToDraft(body))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detailToResponse(detail))
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}

	detail, err := s.trips.Get(r.Context(), userID, tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailToResponse(detail))
}

// UpdateTrip handles PUT /trips/{tripId}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}
	var body TripRequest
	if !decodeBody(w, r, &body) {
		return
	}

	detail, err := s.trips.Update(r.Context(), userID, tripID, requestToDraft(body))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailToResponse(detail))
}

// FinalizeTrip handles POST /trips/{tripId}/finalize.
func (s *Server) FinalizeTrip(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.trips.Finalize)
}

// CancelTrip handles POST /trips/{tripId}/cancel.
func (s *Server) CancelTrip(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.trips.Cancel)
}

// CloseTrip handles POST /trips/{tripId}/close.
func (s *Server) CloseTrip(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.trips.Close)
}

// ReopenTrip handles POST /trips/{tripId}/reopen.
func (s *Server) ReopenTrip(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.trips.Reopen)
}

// lifecycle runs one status action and returns the updated trip.
func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error)) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}

	trip, err := action(r.Context(), userID, tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// GetTripHistory handles GET /trips/{tripId}/history.
func (s *Server) GetTripHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}

	events, err := s.trips.History(r.Context(), userID, tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[StatusEventResponse]{
		Data: mapSlice(events, func(e domain.StatusEvent) StatusEventResponse {
			return StatusEventResponse{ID: e.ID, Action: e.Action, From: e.From, To: e.To, ActorID: e.ActorID, CreatedAt: e.CreatedAt}
		}),
	})
}

// --- mapping helpers --------------------------------------------------------

// requestToDraft converts a TripRequest body into a domain.TripDraft.
func requestToDraft(body TripRequest) domain.TripDraft {
	d := domain.TripDraft{
		Title:             body.Title,
		Description:       body.Description,
		DestinationCityID: body.DestinationCityID,
		DefiniteDate:      dateToTime(body.DefiniteDate),
		StartDate:         dateToTime(body.StartDate),
		EndDate:           dateToTime(body.EndDate),
		Budget:            body.Budget,
		MaxParticipants:   body.MaxParticipants,
	}
	if body.Stops != nil {
		d.ReplaceStops = true
		d.Stops = make([]domain.StopInput, len(*body.Stops))
		for i, st := range *body.Stops {
			d.Stops[i] = domain.StopInput{
				Name:            st.Name,
				Place:           st.Place,
				Time:            st.Time,
				BudgetPerPerson: string(st.BudgetPerPerson),
				Notes:           st.Notes,
				Type:            st.Type,
				Position:        st.Position,
			}
		}
	}
	if body.EditorIDs != nil {
		d.EditorIDs = *body.EditorIDs
		if d.EditorIDs == nil {
			d.EditorIDs = []uuid.UUID{}
		}
	}
	return d
}

// tripToResponse converts a domain.Trip into its API shape.
func tripToResponse(t domain.Trip) TripResponse {
	isOpen, isCancelled, isFinalized := t.Status.Flags()
	return TripResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		CreatorID:         t.CreatorID,
		DestinationCityID: t.DestinationCityID,
		DefiniteDate:      timeToDate(t.DefiniteDate),
		StartDate:         timeToDate(t.StartDate),
		EndDate:           timeToDate(t.EndDate),
		Budget:            t.Budget,
		MaxParticipants:   t.MaxParticipants,
		Status:            t.Status,
		IsOpen:            isOpen,
		IsCancelled:       isCancelled,
		IsFinalized:       isFinalized,
		StatusChangedAt:   t.StatusChangedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func detailToResponse(d domain.TripDetail) TripDetailResponse {
	return TripDetailResponse{
		TripResponse: tripToResponse(d.Trip),
		Stops:        mapSlice(d.Stops, stopToResponse),
		Participants: mapSlice(d.Participants, participantToResponse),
		Access: AccessResponse{
			IsCreator:     d.Access.IsCreator,
			IsParticipant: d.Access.IsParticipant,
			CanEdit:       d.Access.CanEdit,
			IsOnlyEditor:  d.IsOnlyEditor,
		},
	}
}

func stopToResponse(s domain.Stop) StopResponse {
	resp := StopResponse{
		ID:              s.ID,
		Name:            s.Name,
		Place:           s.Place,
		BudgetPerPerson: s.BudgetPerPerson,
		Notes:           s.Notes,
		Type:            s.Type,
		Position:        s.Position,
	}
	if s.Time != nil {
		str := s.Time.String()
		resp.Time = &str
	}
	return resp
}

func participantToResponse(p domain.Participation) ParticipantResponse {
	return ParticipantResponse{
		TripID:             p.TripID,
		UserID:             p.UserID,
		UserName:           p.UserName,
		EditingPermissions: p.EditingPermissions,
		JoinedAt:           p.JoinedAt,
	}
}

func dateToTime(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func timeToDate(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}
