package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/internal/domain"
)

// CommentRequest is the body of POST /trips/{tripId}/comments.
type CommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// CommentResponse is one comment.
type CommentResponse struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// MeetupRequest is the body of POST /trips/{tripId}/meetups. City, date and
// time are kept as strings; the service rejects values that do not parse.
type MeetupRequest struct {
	Content  string `json:"content"`
	Location string `json:"location" validate:"required"`
	CityID   string `json:"city_id" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
}

// MeetupStatusRequest is the body of PUT /trips/{tripId}/meetups/{meetupId}/status.
type MeetupStatusRequest struct {
	Status domain.MeetupStatus `json:"status" validate:"required,oneof=PLANNING HAPPENING DONE"`
}

// MeetupResponse is one meetup.
type MeetupResponse struct {
	ID        uuid.UUID           `json:"id"`
	TripID    uuid.UUID           `json:"trip_id"`
	UserID    uuid.UUID           `json:"user_id"`
	Content   string              `json:"content"`
	Location  string              `json:"location"`
	CityID    uuid.UUID           `json:"city_id"`
	Date      openapi_types.Date  `json:"date"`
	Time      string              `json:"time"`
	Status    domain.MeetupStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// ListComments handles GET /trips/{tripId}/comments, newest first.
func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}
	params := paginationFrom(r)

	page, err := s.comments.List(r.Context(), tripID, params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[CommentResponse]{
		Data:       mapSlice(page.Items, commentToResponse),
		Pagination: &Pagination{Page: params.Page, Limit: params.Limit, Total: page.Total},
	})
}

// AddComment handles POST /trips/{tripId}/comments.
func (s *Server) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}
	var body CommentRequest
	if !decodeBody(w, r, &body) {
		return
	}

	c, err := s.comments.Add(r.Context(), userID, tripID, body.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentToResponse(c))
}

// ListMeetups handles GET /trips/{tripId}/meetups.
func (s *Server) ListMeetups(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}

	meetups, err := s.meetups.List(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[MeetupResponse]{Data: mapSlice(meetups, meetupToResponse)})
}

// CreateMeetup handles POST /trips/{tripId}/meetups.
func (s *Server) CreateMeetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}
	var body MeetupRequest
	if !decodeBody(w, r, &body) {
		return
	}

	m, err := s.meetups.Create(r.Context(), userID, tripID, domain.MeetupInput{
		Content:  body.Content,
		Location: body.Location,
		CityID:   body.CityID,
		Date:     body.Date,
		Time:     body.Time,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meetupToResponse(m))
}

// AdvanceMeetup handles PUT /trips/{tripId}/meetups/{meetupId}/status.
func (s *Server) AdvanceMeetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}
	meetupID, ok := pathID(w, r, "meetupId", "meetup")
	if !ok {
		return
	}
	var body MeetupStatusRequest
	if !decodeBody(w, r, &body) {
		return
	}

	m, err := s.meetups.Advance(r.Context(), userID, tripID, meetupID, body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meetupToResponse(m))
}

func commentToResponse(c domain.Comment) CommentResponse {
	return CommentResponse{ID: c.ID, AuthorID: c.AuthorID, AuthorName: c.AuthorName, Content: c.Content, CreatedAt: c.CreatedAt}
}

func meetupToResponse(m domain.Meetup) MeetupResponse {
	return MeetupResponse{
		ID:        m.ID,
		TripID:    m.TripID,
		UserID:    m.UserID,
		Content:   m.Content,
		Location:  m.Location,
		CityID:    m.CityID,
		Date:      openapi_types.Date{Time: m.Date},
		Time:      m.Time.String()[:5],
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}
