// Package service contains the business logic for the trip planner API.
// Services load entities through the repo layer, hand them to the pure rules in
// the domain package, persist what comes back inside one transaction, and
// publish events once that transaction has committed.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// EventPublisher delivers trip events to the message bus.
// Publishing is best effort: a failure is logged and never fails the request.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.TripEvent) error
}

func publish(ctx context.Context, p EventPublisher, events ...domain.TripEvent) {
	if p == nil {
		return
	}
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			slog.WarnContext(ctx, "publish trip event failed",
				"kind", e.Kind,
				"trip_id", e.TripID,
				"error", err,
			)
		}
	}
}

// tripState is a trip together with its participants and the caller's access.
type tripState struct {
	trip         domain.Trip
	participants []domain.Participation
	access       domain.Access
}

// loadTrip reads a trip and its participants. With lock set the trip row is
// held FOR UPDATE until the surrounding transaction ends.
func loadTrip(ctx context.Context, r repo.Repos, tripID, userID uuid.UUID, lock bool) (tripState, error) {
	get := r.Trips.GetByID
	if lock {
		get = r.Trips.GetForUpdate
	}
	trip, err := get(ctx, tripID)
	if err != nil {
		return tripState{}, err
	}
	parts, err := r.Participants.ListByTripID(ctx, tripID)
	if err != nil {
		return tripState{}, err
	}
	return tripState{
		trip:         trip,
		participants: parts,
		access:       domain.NewAccess(trip, userID, parts),
	}, nil
}

// recordTransition persists a changed transition and its history row, and
// returns the event to publish after commit. Unchanged transitions are skipped.
func recordTransition(ctx context.Context, r repo.Repos, tripID uuid.UUID, actor *uuid.UUID, tr domain.Transition) (*domain.TripEvent, error) {
	if !tr.Changed {
		return nil, nil
	}
	if err := r.Trips.UpdateStatus(ctx, tripID, tr.To, tr.At); err != nil {
		return nil, err
	}
	if err := r.StatusEvents.Append(ctx, domain.NewStatusEvent(tripID, actor, tr)); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "trip status changed",
		"trip_id", tripID,
		"action", tr.Action,
		"from", tr.From,
		"to", tr.To,
	)
	return &domain.TripEvent{
		Kind:       domain.EventStatusChanged,
		TripID:     tripID,
		ActorID:    actor,
		Action:     tr.Action,
		FromStatus: tr.From,
		ToStatus:   tr.To,
		OccurredAt: tr.At,
	}, nil
}

// enforceCapacity closes st.trip if it is full, persisting the change.
func enforceCapacity(ctx context.Context, r repo.Repos, st *tripState, count int, now time.Time) (*domain.TripEvent, error) {
	tr, changed := domain.ApplyCapacity(&st.trip, count, now)
	if !changed {
		return nil, nil
	}
	ev, err := recordTransition(ctx, r, st.trip.ID, nil, tr)
	if err != nil {
		return nil, fmt.Errorf("capacity: %w", err)
	}
	return ev, nil
}

func requireEditor(a domain.Access) error {
	if !a.CanEdit {
		return fmt.Errorf("%w: only the creator or an editor can do this", domain.ErrForbidden)
	}
	return nil
}

func event(kind domain.EventKind, tripID, actor uuid.UUID, at time.Time) domain.TripEvent {
	return domain.TripEvent{Kind: kind, TripID: tripID, ActorID: &actor, OccurredAt: at}
}

// appendEvent adds ev to list when it is not nil.
func appendEvent(list []domain.TripEvent, ev *domain.TripEvent) []domain.TripEvent {
	if ev == nil {
		return list
	}
	return append(list, *ev)
}
