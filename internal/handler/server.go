// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// The servicer interfaces below are defined here, in the consumer package,
// so handler tests can inject mocks without touching the database or the
// service layer.

// TripServicer defines the trip operations the handlers depend on.
type TripServicer interface {
	Create(ctx context.Context, userID uuid.UUID, draft domain.TripDraft) (domain.TripDetail, error)
	Get(ctx context.Context, userID, tripID uuid.UUID) (domain.TripDetail, error)
	Update(ctx context.Context, userID, tripID uuid.UUID, draft domain.TripDraft) (domain.TripDetail, error)
	List(ctx context.Context, userID uuid.UUID, filter domain.TripFilter, p domain.PaginationParams) (domain.Page[domain.Trip], error)
	Finalize(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error)
	Cancel(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error)
	Close(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error)
	Reopen(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error)
	History(ctx context.Context, userID, tripID uuid.UUID) ([]domain.StatusEvent, error)
	Itinerary(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ItineraryRow, error)
}

// ParticipationServicer defines join, leave and invitation operations.
type ParticipationServicer interface {
	Join(ctx context.Context, userID, tripID uuid.UUID) (domain.Participation, error)
	Leave(ctx context.Context, userID, tripID uuid.UUID) error
	Invite(ctx context.Context, userID, tripID, inviteeID uuid.UUID) error
	ListInvitations(ctx context.Context, userID uuid.UUID) ([]domain.Invitation, error)
	AcceptInvitation(ctx context.Context, userID, tripID uuid.UUID) (domain.Participation, error)
	DeclineInvitation(ctx context.Context, userID, tripID uuid.UUID) error
}

// CommentServicer defines the comment operations.
type CommentServicer interface {
	Add(ctx context.Context, userID, tripID uuid.UUID, content string) (domain.Comment, error)
	List(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Comment], error)
}

// MeetupServicer defines the meetup operations.
type MeetupServicer interface {
	Create(ctx context.Context, userID, tripID uuid.UUID, in domain.MeetupInput) (domain.Meetup, error)
	List(ctx context.Context, tripID uuid.UUID) ([]domain.Meetup, error)
	Advance(ctx context.Context, userID, tripID, meetupID uuid.UUID, status domain.MeetupStatus) (domain.Meetup, error)
}

// UserServicer defines registration, login and profile operations.
type UserServicer interface {
	Register(ctx context.Context, in service.Registration) (domain.User, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p service.Profile) (domain.User, error)
}

// CityServicer lists reference cities.
type CityServicer interface {
	List(ctx context.Context) ([]domain.City, error)
}

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the dependencies of Server. A nil field is allowed in
// tests that never reach the matching routes.
type Services struct {
	Trips         TripServicer
	Participation ParticipationServicer
	Comments      CommentServicer
	Meetups       MeetupServicer
	Users         UserServicer
	Cities        CityServicer
	DB            Pinger
}

// Server holds every service the HTTP handlers call.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips    TripServicer
	parts    ParticipationServicer
	comments CommentServicer
	meetups  MeetupServicer
	users    UserServicer
	cities   CityServicer
	db       Pinger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(s Services) *Server {
	return &Server{
		trips:    s.Trips,
		parts:    s.Participation,
		comments: s.Comments,
		meetups:  s.Meetups,
		users:    s.Users,
		cities:   s.Cities,
		db:       s.DB,
	}
}

// Routes builds the API router. Routes that need a user are wrapped in
// authenticate, which must put the caller's id in the request context.
func (s *Server) Routes(authenticate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Post("/users", s.Register)
	r.Post("/sessions", s.Login)
	r.Get("/cities", s.ListCities)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Put("/users/me", s.UpdateMe)
		r.Get("/users/{userId}", s.GetUser)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)

			r.Route("/{tripId}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Post("/finalize", s.FinalizeTrip)
				r.Post("/cancel", s.CancelTrip)
				r.Post("/close", s.CloseTrip)
				r.Post("/reopen", s.ReopenTrip)
				r.Get("/history", s.GetTripHistory)
				r.Get("/itinerary", s.GetItinerary)

				r.Post("/join", s.JoinTrip)
				r.Post("/leave", s.LeaveTrip)
				r.Post("/invitations", s.InviteToTrip)

				r.Get("/comments", s.ListComments)
				r.Post("/comments", s.AddComment)

				r.Get("/meetups", s.ListMeetups)
				r.Post("/meetups", s.CreateMeetup)
				r.Put("/meetups/{meetupId}/status", s.AdvanceMeetup)
			})
		})

		r.Get("/invitations", s.ListInvitations)
		r.Post("/invitations/{tripId}/accept", s.AcceptInvitation)
		r.Delete("/invitations/{tripId}", s.DeclineInvitation)
	})

	return r
}
