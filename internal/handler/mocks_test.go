package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/handler"
	"github.com/pkordes/trip-planner/internal/service"
)

// The mocks below are test doubles for the handler servicer interfaces.
// Set only the method fields your test needs.

type mockTripServicer struct {
	create    func(ctx context.Context, userID uuid.UUID, draft domain.TripDraft) (domain.TripDetail, error)
	get       func(ctx context.Context, userID, tripID uuid.UUID) (domain.TripDetail, error)
	update    func(ctx context.Context, userID, tripID uuid.UUID, draft domain.TripDraft) (domain.TripDetail, error)
	list      func(ctx context.Context, userID uuid.UUID, filter domain.TripFilter, p domain.PaginationParams) (domain.Page[domain.Trip], error)
	action    func(ctx context.Context, action domain.Action, userID, tripID uuid.UUID) (domain.Trip, error)
	history   func(ctx context.Context, userID, tripID uuid.UUID) ([]domain.StatusEvent, error)
	itinerary func(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ItineraryRow, error)
}

func (m *mockTripServicer) Create(ctx context.Context, userID uuid.UUID, d domain.TripDraft) (domain.TripDetail, error) {
	return m.create(ctx, userID, d)
}
func (m *mockTripServicer) Get(ctx context.Context, userID, tripID uuid.UUID) (domain.TripDetail, error) {
	return m.get(ctx, userID, tripID)
}
func (m *mockTripServicer) Update(ctx context.Context, userID, tripID uuid.UUID, d domain.TripDraft) (domain.TripDetail, error) {
	return m.update(ctx, userID, tripID, d)
}
func (m *mockTripServicer) List(ctx context.Context, userID uuid.UUID, f domain.TripFilter, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	return m.list(ctx, userID, f, p)
}
func (m *mockTripServicer) Finalize(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	return m.action(ctx, domain.ActionFinalize, userID, tripID)
}
func (m *mockTripServicer) Cancel(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	return m.action(ctx, domain.ActionCancel, userID, tripID)
}
func (m *mockTripServicer) Close(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	return m.action(ctx, domain.ActionClose, userID, tripID)
}
func (m *mockTripServicer) Reopen(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	return m.action(ctx, domain.ActionReopen, userID, tripID)
}
func (m *mockTripServicer) History(ctx context.Context, userID, tripID uuid.UUID) ([]domain.StatusEvent, error) {
	return m.history(ctx, userID, tripID)
}
func (m *mockTripServicer) Itinerary(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ItineraryRow, error) {
	return m.itinerary(ctx, userID, tripID)
}

type mockParticipationServicer struct {
	join    func(ctx context.Context, userID, tripID uuid.UUID) (domain.Participation, error)
	leave   func(ctx context.Context, userID, tripID uuid.UUID) error
	invite  func(ctx context.Context, userID, tripID, inviteeID uuid.UUID) error
	list    func(ctx context.Context, userID uuid.UUID) ([]domain.Invitation, error)
	accept  func(ctx context.Context, userID, tripID uuid.UUID) (domain.Participation, error)
	decline func(ctx context.Context, userID, tripID uuid.UUID) error
}

func (m *mockParticipationServicer) Join(ctx context.Context, userID, tripID uuid.UUID) (domain.Participation, error) {
	return m.join(ctx, userID, tripID)
}
func (m *mockParticipationServicer) Leave(ctx context.Context, userID, tripID uuid.UUID) error {
	return m.leave(ctx, userID, tripID)
}
func (m *mockParticipationServicer) Invite(ctx context.Context, userID, tripID, inviteeID uuid.UUID) error {
	return m.invite(ctx, userID, tripID, inviteeID)
}
func (m *mockParticipationServicer) ListInvitations(ctx context.Context, userID uuid.UUID) ([]domain.Invitation, error) {
	return m.list(ctx, userID)
}
func (m *mockParticipationServicer) AcceptInvitation(ctx context.Context, userID, tripID uuid.UUID) (domain.Participation, error) {
	return m.accept(ctx, userID, tripID)
}
func (m *mockParticipationServicer) DeclineInvitation(ctx context.Context, userID, tripID uuid.UUID) error {
	return m.decline(ctx, userID, tripID)
}

type mockCommentServicer struct {
	add  func(ctx context.Context, userID, tripID uuid.UUID, content string) (domain.Comment, error)
	list func(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Comment], error)
}

func (m *mockCommentServicer) Add(ctx context.Context, userID, tripID uuid.UUID, content string) (domain.Comment, error) {
	return m.add(ctx, userID, tripID, content)
}
func (m *mockCommentServicer) List(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Comment], error) {
	return m.list(ctx, tripID, p)
}

type mockMeetupServicer struct {
	create  func(ctx context.Context, userID, tripID uuid.UUID, in domain.MeetupInput) (domain.Meetup, error)
	list    func(ctx context.Context, tripID uuid.UUID) ([]domain.Meetup, error)
	advance func(ctx context.Context, userID, tripID, meetupID uuid.UUID, status domain.MeetupStatus) (domain.Meetup, error)
}

func (m *mockMeetupServicer) Create(ctx context.Context, userID, tripID uuid.UUID, in domain.MeetupInput) (domain.Meetup, error) {
	return m.create(ctx, userID, tripID, in)
}
func (m *mockMeetupServicer) List(ctx context.Context, tripID uuid.UUID) ([]domain.Meetup, error) {
	return m.list(ctx, tripID)
}
func (m *mockMeetupServicer) Advance(ctx context.Context, userID, tripID, meetupID uuid.UUID, status domain.MeetupStatus) (domain.Meetup, error) {
	return m.advance(ctx, userID, tripID, meetupID, status)
}

type mockUserServicer struct {
	register      func(ctx context.Context, in service.Registration) (domain.User, error)
	login         func(ctx context.Context, email, password string) (service.Session, error)
	get           func(ctx context.Context, id uuid.UUID) (domain.User, error)
	updateProfile func(ctx context.Context, id uuid.UUID, p service.Profile) (domain.User, error)
}

func (m *mockUserServicer) Register(ctx context.Context, in service.Registration) (domain.User, error) {
	return m.register(ctx, in)
}
func (m *mockUserServicer) Login(ctx context.Context, email, password string) (service.Session, error) {
	return m.login(ctx, email, password)
}
func (m *mockUserServicer) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.get(ctx, id)
}
func (m *mockUserServicer) UpdateProfile(ctx context.Context, id uuid.UUID, p service.Profile) (domain.User, error) {
	return m.updateProfile(ctx, id, p)
}

type mockCityServicer struct {
	list func(ctx context.Context) ([]domain.City, error)
}

func (m *mockCityServicer) List(ctx context.Context) ([]domain.City, error) { return m.list(ctx) }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

// compile-time checks: every mock must satisfy its handler interface.
var (
	_ handler.TripServicer          = (*mockTripServicer)(nil)
	_ handler.ParticipationServicer = (*mockParticipationServicer)(nil)
	_ handler.CommentServicer       = (*mockCommentServicer)(nil)
	_ handler.MeetupServicer        = (*mockMeetupServicer)(nil)
	_ handler.UserServicer          = (*mockUserServicer)(nil)
	_ handler.CityServicer          = (*mockCityServicer)(nil)
	_ handler.Pinger                = (*mockPinger)(nil)
)

// ---- helpers ---------------------------------------------------------------

// asUser stands in for the JWT authenticator: every request is made by id.
func asUser(id uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), id)))
		})
	}
}

// anonymous lets every request through without an identity.
func anonymous(next http.Handler) http.Handler { return next }

// newHTTPHandler wires a Server with the given mocks into the router,
// the same way main.go does in production.
func newHTTPHandler(svcs handler.Services, userID uuid.UUID) http.Handler {
	return handler.NewServer(svcs).Routes(asUser(userID))
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// do runs one request and returns the recorder.
func do(h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeError reads the standard error envelope.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}
