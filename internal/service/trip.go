package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// TripService implements the trip lifecycle: create, edit, list, and the
// finalize / cancel / close / reopen transitions.
type TripService struct {
	store  repo.Store
	events EventPublisher
	policy domain.Policy
	now    func() time.Time
}

// NewTripService constructs a TripService. policy decides whether finalized or
// cancelled trips may be reopened.
func NewTripService(store repo.Store, events EventPublisher, policy domain.Policy) *TripService {
	return &TripService{store: store, events: events, policy: policy, now: time.Now}
}

// Create validates draft and persists a new open trip with its stops. The
// creator becomes the first participant with editing permissions.
func (s *TripService) Create(ctx context.Context, userID uuid.UUID, draft domain.TripDraft) (domain.TripDetail, error) {
	if err := draft.Validate(); err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	now := s.now()
	var (
		detail domain.TripDetail
		events []domain.TripEvent
	)
	err := s.store.WithinTx(ctx, func(r repo.Repos) error {
		trip := domain.Trip{CreatorID: userID, Status: domain.StatusOpen}
		draft.Apply(&trip)
		stops := domain.BuildStops(uuid.Nil, draft.Stops)
		trip.Budget = domain.DeriveBudget(trip.Budget, stops)

		created, err := r.Trips.Create(ctx, trip)
		if err != nil {
			return err
		}
		saved, err := r.Stops.Replace(ctx, created.ID, stops)
		if err != nil {
			return err
		}
		err = r.Participants.Upsert(ctx, domain.Participation{
			TripID:             created.ID,
			UserID:             userID,
			EditingPermissions: true,
			JoinedAt:           now,
		})
		if err != nil {
			return err
		}

		st, err := loadTrip(ctx, r, created.ID, userID, false)
		if err != nil {
			return err
		}
		events = append(events, event(domain.EventTripCreated, created.ID, userID, now))
		ev, err := enforceCapacity(ctx, r, &st, len(st.participants), now)
		if err != nil {
			return err
		}
		events = appendEvent(events, ev)
		detail = newDetail(st, saved)
		return nil
	})
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	publish(ctx, s.events, events...)
	return detail, nil
}

// Get returns the trip page for userID. A trip that has filled up since the
// last write is closed on the way.
func (s *TripService) Get(ctx context.Context, userID, tripID uuid.UUID) (domain.TripDetail, error) {
	var (
		detail domain.TripDetail
		ev     *domain.TripEvent
	)
	err := s.store.WithinTx(ctx, func(r repo.Repos) error {
		st, err := loadTrip(ctx, r, tripID, userID, true)
		if err != nil {
			return err
		}
		if ev, err = enforceCapacity(ctx, r, &st, len(st.participants), s.now()); err != nil {
			return err
		}
		stops, err := r.Stops.ListByTripID(ctx, tripID)
		if err != nil {
			return err
		}
		detail = newDetail(st, stops)
		return nil
	})
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.Get: %w", err)
	}

	publish(ctx, s.events, appendEvent(nil, ev)...)
	return detail, nil
}

// Update applies draft to an existing trip. Only the creator and editors may
// edit. Submitted stops replace the current set and the budget is re-derived;
// a submitted editor list replaces the editing permission set.
func (s *TripService) Update(ctx context.Context, userID, tripID uuid.UUID, draft domain.TripDraft) (domain.TripDetail, error) {
	if err := draft.Validate(); err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.Update: %w", err)
	}

	now := s.now()
	var (
		detail domain.TripDetail
		events []domain.TripEvent
	)
	err := s.store.WithinTx(ctx, func(r repo.Repos) error {
		st, err := loadTrip(ctx, r, tripID, userID, true)
		if err != nil {
			return err
		}
		if err := requireEditor(st.access); err != nil {
			return err
		}

		// Validate the editor set before anything is written.
		var parts []domain.Participation
		if draft.EditorIDs != nil {
			if parts, err = domain.ApplyEditorSet(st.participants, draft.EditorIDs); err != nil {
				return err
			}
		}

		trip := st.trip
		draft.Apply(&trip)

		var stops []domain.Stop
		if draft.ReplaceStops {
			stops = domain.BuildStops(tripID, draft.Stops)
		} else if stops, err = r.Stops.ListByTripID(ctx, tripID); err != nil {
			return err
		}
		trip.Budget = domain.DeriveBudget(draft.Budget, stops)

		updated, err := r.Trips.Update(ctx, trip)
		if err != nil {
			return err
		}
		if draft.ReplaceStops {
			if stops, err = r.Stops.Replace(ctx, tripID, stops); err != nil {
				return err
			}
		}
		if parts != nil {
			if err := r.Participants.SetEditors(ctx, tripID, editorIDs(parts)); err != nil {
				return err
			}
			st.participants = parts
		}

		st.trip = updated
		st.access = domain.NewAccess(updated, userID, st.participants)
		events = append(events, event(domain.EventTripUpdated, tripID, userID, now))

		// A lowered max_participants can make the trip full.
		ev, err := enforceCapacity(ctx, r, &st, len(st.participants), now)
		if err != nil {
			return err
		}
		events = appendEvent(events, ev)
		detail = newDetail(st, stops)
		return nil
	})
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.Update: %w", err)
	}

	publish(ctx, s.events, events...)
	return detail, nil
}

// List returns one page of the trips visible to userID under filter.
func (s *TripService) List(ctx context.Context, userID uuid.UUID, filter domain.TripFilter, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	trips, total, err := s.store.Repos().Trips.ListVisible(ctx, userID, filter, p)
	if err != nil {
		return domain.Page[domain.Trip]{}, fmt.Errorf("service.TripService.List: %w", err)
	}
	return domain.Page[domain.Trip]{Items: trips, Total: total}, nil
}

// Finalize marks the trip finalized once every stop has a name, place and time.
func (s *TripService) Finalize(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.transition(ctx, userID, tripID, domain.ActionFinalize)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Finalize: %w", err)
	}
	return trip, nil
}

// Cancel marks the trip cancelled. Cancelling a cancelled trip is a no-op.
func (s *TripService) Cancel(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.transition(ctx, userID, tripID, domain.ActionCancel)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
	}
	return trip, nil
}

// Close stops the trip from accepting new participants.
func (s *TripService) Close(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.transition(ctx, userID, tripID, domain.ActionClose)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Close: %w", err)
	}
	return trip, nil
}

// Reopen opens a closed trip again. Creator only.
func (s *TripService) Reopen(ctx context.Context, userID, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.transition(ctx, userID, tripID, domain.ActionReopen)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Reopen: %w", err)
	}
	return trip, nil
}

func (s *TripService) transition(ctx context.Context, userID, tripID uuid.UUID, action domain.Action) (domain.Trip, error) {
	var (
		trip domain.Trip
		ev   *domain.TripEvent
	)
	err := s.store.WithinTx(ctx, func(r repo.Repos) error {
		st, err := loadTrip(ctx, r, tripID, userID, true)
		if err != nil {
			return err
		}
		var stops []domain.Stop
		if action == domain.ActionFinalize {
			if stops, err = r.Stops.ListByTripID(ctx, tripID); err != nil {
				return err
			}
		}
		tr, err := s.policy.Apply(&st.trip, action, st.access, stops, s.now())
		if err != nil {
			return err
		}
		if ev, err = recordTransition(ctx, r, tripID, &userID, tr); err != nil {
			return err
		}
		trip = st.trip
		return nil
	})
	if err != nil {
		return domain.Trip{}, err
	}

	publish(ctx, s.events, appendEvent(nil, ev)...)
	return trip, nil
}

// History returns the trip's status changes, newest first. Only members of
// the trip may read it.
func (s *TripService) History(ctx context.Context, userID, tripID uuid.UUID) ([]domain.StatusEvent, error) {
	r := s.store.Repos()
	st, err := loadTrip(ctx, r, tripID, userID, false)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.History: %w", err)
	}
	if !st.access.IsParticipant && !st.access.IsCreator {
		return nil, fmt.Errorf("service.TripService.History: %w: only participants can view the history", domain.ErrForbidden)
	}
	events, err := r.StatusEvents.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.History: %w", err)
	}
	return events, nil
}

func newDetail(st tripState, stops []domain.Stop) domain.TripDetail {
	if stops == nil {
		stops = []domain.Stop{}
	}
	return domain.TripDetail{
		Trip:         st.trip,
		Stops:        stops,
		Participants: st.participants,
		Access:       st.access,
		IsOnlyEditor: domain.IsOnlyEditor(st.trip, st.access.UserID, st.participants),
	}
}

func editorIDs(parts []domain.Participation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		if p.EditingPermissions {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}
