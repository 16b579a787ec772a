package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Email    openapi_types.Email `json:"email" validate:"required"`
	Name     string              `json:"name" validate:"required,max=100"`
	Password string              `json:"password" validate:"required,min=8"`
}

// LoginRequest is the body of POST /sessions.
type LoginRequest struct {
	Email    openapi_types.Email `json:"email" validate:"required"`
	Password string              `json:"password" validate:"required"`
}

// ProfileRequest is the body of PUT /users/me.
type ProfileRequest struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Description string     `json:"description" validate:"max=1000"`
	CityID      *uuid.UUID `json:"city_id"`
}

// UserResponse is a user profile. Email is only shown to its owner.
type UserResponse struct {
	ID          uuid.UUID            `json:"id"`
	Email       *openapi_types.Email `json:"email,omitempty"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	CityID      *uuid.UUID           `json:"city_id,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// SessionResponse is the body of a successful login.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CityResponse is one reference city.
type CityResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Register handles POST /users.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var body RegisterRequest
	if !decodeBody(w, r, &body) {
		return
	}

	u, err := s.users.Register(r.Context(), service.Registration{
		Email:    string(body.Email),
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToResponse(u, true))
}

// Login handles POST /sessions.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if !decodeBody(w, r, &body) {
		return
	}

	sess, err := s.users.Login(r.Context(), string(body.Email), body.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      userToResponse(sess.User, true),
	})
}

// GetUser handles GET /users/{userId}.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	u, err := s.users.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u, callerID == u.ID))
}

// UpdateMe handles PUT /users/me.
func (s *Server) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body ProfileRequest
	if !decodeBody(w, r, &body) {
		return
	}

	u, err := s.users.UpdateProfile(r.Context(), userID, service.Profile{
		Name:        body.Name,
		Description: body.Description,
		CityID:      body.CityID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u, true))
}

// ListCities handles GET /cities.
func (s *Server) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.cities.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[CityResponse]{
		Data: mapSlice(cities, func(c domain.City) CityResponse { return CityResponse{ID: c.ID, Name: c.Name} }),
	})
}

func userToResponse(u domain.User, self bool) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Description: u.Description,
		CityID:      u.CityID,
		CreatedAt:   u.CreatedAt,
	}
	if self {
		email := openapi_types.Email(u.Email)
		resp.Email = &email
	}
	return resp
}
