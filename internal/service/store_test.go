package service_test

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// memStore is an in-memory test double for repo.Store.
// WithinTx snapshots the state and restores it when fn fails, so tests can
// assert that a rejected operation left nothing behind.
type memStore struct {
	mu sync.Mutex
	st memState
}

type memState struct {
	users       map[uuid.UUID]domain.User
	trips       map[uuid.UUID]domain.Trip
	stops       map[uuid.UUID][]domain.Stop
	parts       map[uuid.UUID][]domain.Participation
	comments    []domain.Comment
	meetups     map[uuid.UUID]domain.Meetup
	invitations map[[2]uuid.UUID]domain.Invitation
	events      []domain.StatusEvent
}

func newMemStore() *memStore {
	return &memStore{st: memState{
		users:       map[uuid.UUID]domain.User{},
		trips:       map[uuid.UUID]domain.Trip{},
		stops:       map[uuid.UUID][]domain.Stop{},
		parts:       map[uuid.UUID][]domain.Participation{},
		meetups:     map[uuid.UUID]domain.Meetup{},
		invitations: map[[2]uuid.UUID]domain.Invitation{},
	}}
}

func (s memState) clone() memState {
	c := memState{
		users:       maps.Clone(s.users),
		trips:       maps.Clone(s.trips),
		stops:       map[uuid.UUID][]domain.Stop{},
		parts:       map[uuid.UUID][]domain.Participation{},
		comments:    slices.Clone(s.comments),
		meetups:     maps.Clone(s.meetups),
		invitations: maps.Clone(s.invitations),
		events:      slices.Clone(s.events),
	}
	for k, v := range s.stops {
		c.stops[k] = slices.Clone(v)
	}
	for k, v := range s.parts {
		c.parts[k] = slices.Clone(v)
	}
	return c
}

func (m *memStore) Repos() repo.Repos {
	return repo.Repos{
		Users:        memUsers{m},
		Cities:       memCities{},
		Trips:        memTrips{m},
		Stops:        memStops{m},
		Participants: memParts{m},
		Comments:     memComments{m},
		Meetups:      memMeetups{m},
		Invitations:  memInvitations{m},
		StatusEvents: memEvents{m},
	}
}

func (m *memStore) WithinTx(_ context.Context, fn func(repo.Repos) error) error {
	m.mu.Lock()
	snapshot := m.st.clone()
	m.mu.Unlock()

	if err := fn(m.Repos()); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

var _ repo.Store = (*memStore)(nil)

// ---- seeding helpers -------------------------------------------------------

func (m *memStore) addUser(name string) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := domain.User{ID: uuid.New(), Email: name + "@example.com", Name: name}
	m.st.users[u.ID] = u
	return u
}

func (m *memStore) addTrip(t domain.Trip) domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = domain.StatusOpen
	}
	m.st.trips[t.ID] = t
	return t
}

func (m *memStore) addParticipant(tripID, userID uuid.UUID, editor bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.parts[tripID] = append(m.st.parts[tripID], domain.Participation{
		TripID: tripID, UserID: userID, UserName: m.st.users[userID].Name,
		EditingPermissions: editor, JoinedAt: time.Now(),
	})
}

func (m *memStore) setStops(tripID uuid.UUID, stops []domain.Stop) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.stops[tripID] = stops
}

func (m *memStore) trip(id uuid.UUID) domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.trips[id]
}

func (m *memStore) participants(tripID uuid.UUID) []domain.Participation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.st.parts[tripID])
}

func (m *memStore) statusEvents() []domain.StatusEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.st.events)
}

// ---- repos -----------------------------------------------------------------

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.st.users {
		if existing.Email == u.Email {
			return domain.User{}, domain.ErrConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	r.m.st.users[u.ID] = u
	return u, nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.st.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r memUsers) UpdateProfile(_ context.Context, u domain.User) (domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.st.users[u.ID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	existing.Name, existing.Description, existing.CityID = u.Name, u.Description, u.CityID
	r.m.st.users[u.ID] = existing
	return existing, nil
}

type memCities struct{}

func (memCities) List(context.Context) ([]domain.City, error) {
	return []domain.City{{ID: uuid.New(), Name: "Ghent"}}, nil
}

type memTrips struct{ m *memStore }

func (r memTrips) Create(_ context.Context, t domain.Trip) (domain.Trip, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.StatusChangedAt = t.CreatedAt
	r.m.st.trips[t.ID] = t
	return t, nil
}

func (r memTrips) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.st.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

func (r memTrips) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r memTrips) Update(_ context.Context, t domain.Trip) (domain.Trip, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.st.trips[t.ID]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	t.Status, t.StatusChangedAt = existing.Status, existing.StatusChangedAt
	r.m.st.trips[t.ID] = t
	return t, nil
}

func (r memTrips) UpdateStatus(_ context.Context, id uuid.UUID, status domain.Status, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.st.trips[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status, t.StatusChangedAt = status, at
	r.m.st.trips[id] = t
	return nil
}

func (r memTrips) ListVisible(_ context.Context, userID uuid.UUID, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.Trip
	for _, t := range r.m.st.trips {
		if f.Visible(t, domain.FindParticipation(r.m.st.parts[t.ID], userID) != nil) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StatusChangedAt.After(out[j].StatusChangedAt) })
	total := int64(len(out))
	start := min(p.Offset(), len(out))
	end := min(start+p.Limit, len(out))
	return out[start:end], total, nil
}

type memStops struct{ m *memStore }

func (r memStops) ListByTripID(_ context.Context, tripID uuid.UUID) ([]domain.Stop, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := slices.Clone(r.m.st.stops[tripID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r memStops) Replace(_ context.Context, tripID uuid.UUID, stops []domain.Stop) ([]domain.Stop, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]domain.Stop, len(stops))
	for i, s := range stops {
		s.ID = uuid.New()
		s.TripID = tripID
		out[i] = s
	}
	r.m.st.stops[tripID] = out
	return out, nil
}

type memParts struct{ m *memStore }

func (r memParts) ListByTripID(_ context.Context, tripID uuid.UUID) ([]domain.Participation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return slices.Clone(r.m.st.parts[tripID]), nil
}

func (r memParts) Upsert(_ context.Context, p domain.Participation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	list := r.m.st.parts[p.TripID]
	for i := range list {
		if list[i].UserID == p.UserID {
			list[i].EditingPermissions = p.EditingPermissions
			return nil
		}
	}
	p.UserName = r.m.st.users[p.UserID].Name
	r.m.st.parts[p.TripID] = append(list, p)
	return nil
}

func (r memParts) Delete(_ context.Context, tripID, userID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.st.parts[tripID] = slices.DeleteFunc(r.m.st.parts[tripID], func(p domain.Participation) bool {
		return p.UserID == userID
	})
	return nil
}

func (r memParts) SetEditors(_ context.Context, tripID uuid.UUID, ids []uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	list := r.m.st.parts[tripID]
	for i := range list {
		list[i].EditingPermissions = slices.Contains(ids, list[i].UserID)
	}
	return nil
}

type memComments struct{ m *memStore }

func (r memComments) Create(_ context.Context, c domain.Comment) (domain.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c.ID = uuid.New()
	c.AuthorName = r.m.st.users[c.AuthorID].Name
	c.CreatedAt = time.Now()
	r.m.st.comments = append(r.m.st.comments, c)
	return c, nil
}

func (r memComments) ListByTripID(_ context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Comment, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.Comment
	for i := len(r.m.st.comments) - 1; i >= 0; i-- {
		if r.m.st.comments[i].TripID == tripID {
			out = append(out, r.m.st.comments[i])
		}
	}
	total := int64(len(out))
	start := min(p.Offset(), len(out))
	end := min(start+p.Limit, len(out))
	return out[start:end], total, nil
}

type memMeetups struct{ m *memStore }

func (r memMeetups) Create(_ context.Context, mt domain.Meetup) (domain.Meetup, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	mt.ID = uuid.New()
	r.m.st.meetups[mt.ID] = mt
	return mt, nil
}

func (r memMeetups) GetByID(_ context.Context, tripID, id uuid.UUID) (domain.Meetup, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	mt, ok := r.m.st.meetups[id]
	if !ok || mt.TripID != tripID {
		return domain.Meetup{}, domain.ErrNotFound
	}
	return mt, nil
}

func (r memMeetups) ListByTripID(_ context.Context, tripID uuid.UUID) ([]domain.Meetup, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.Meetup{}
	for _, mt := range r.m.st.meetups {
		if mt.TripID == tripID {
			out = append(out, mt)
		}
	}
	return out, nil
}

func (r memMeetups) UpdateStatus(_ context.Context, tripID, id uuid.UUID, status domain.MeetupStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	mt, ok := r.m.st.meetups[id]
	if !ok || mt.TripID != tripID {
		return domain.ErrNotFound
	}
	mt.Status = status
	r.m.st.meetups[id] = mt
	return nil
}

type memInvitations struct{ m *memStore }

func (r memInvitations) Create(_ context.Context, inv domain.Invitation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := [2]uuid.UUID{inv.TripID, inv.UserID}
	if _, ok := r.m.st.invitations[key]; ok {
		return domain.ErrConflict
	}
	r.m.st.invitations[key] = inv
	return nil
}

func (r memInvitations) Get(_ context.Context, tripID, userID uuid.UUID) (domain.Invitation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	inv, ok := r.m.st.invitations[[2]uuid.UUID{tripID, userID}]
	if !ok {
		return domain.Invitation{}, domain.ErrNotFound
	}
	return inv, nil
}

func (r memInvitations) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Invitation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.Invitation{}
	for _, inv := range r.m.st.invitations {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r memInvitations) Delete(_ context.Context, tripID, userID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := [2]uuid.UUID{tripID, userID}
	if _, ok := r.m.st.invitations[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m.st.invitations, key)
	return nil
}

type memEvents struct{ m *memStore }

func (r memEvents) Append(_ context.Context, e domain.StatusEvent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e.ID = uuid.New()
	r.m.st.events = append(r.m.st.events, e)
	return nil
}

func (r memEvents) ListByTripID(_ context.Context, tripID uuid.UUID) ([]domain.StatusEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.StatusEvent{}
	for i := len(r.m.st.events) - 1; i >= 0; i-- {
		if r.m.st.events[i].TripID == tripID {
			out = append(out, r.m.st.events[i])
		}
	}
	return out, nil
}

// ---- event publisher -------------------------------------------------------

// recordingPublisher captures published events. Set err to make Publish fail.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.TripEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.TripEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}
