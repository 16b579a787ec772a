package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// StatusEventRepo is the append-only log of trip status transitions.
type StatusEventRepo interface {
	Append(ctx context.Context, e domain.StatusEvent) error

	// ListByTripID returns a trip's history, newest first.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.StatusEvent, error)
}

type pgStatusEventRepo struct {
	db db
}

// NewStatusEventRepo constructs a StatusEventRepo backed by the provided db connection.
func NewStatusEventRepo(db db) StatusEventRepo {
	return &pgStatusEventRepo{db: db}
}

func (r *pgStatusEventRepo) Append(ctx context.Context, e domain.StatusEvent) error {
	const q = `
		INSERT INTO trip_status_events (trip_id, actor_id, action, from_status, to_status, created_at)
		VALUES (@trip_id, @actor_id, @action, @from_status, @to_status, @created_at)`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"trip_id":     e.TripID,
		"actor_id":    e.ActorID,
		"action":      string(e.Action),
		"from_status": string(e.From),
		"to_status":   string(e.To),
		"created_at":  e.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("repo.StatusEventRepo.Append: %w", err)
	}
	return nil
}

func (r *pgStatusEventRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.StatusEvent, error) {
	const q = `
		SELECT id, trip_id, actor_id, action, from_status, to_status, created_at
		FROM trip_status_events
		WHERE trip_id = @trip_id
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.StatusEventRepo.ListByTripID: %w", err)
	}
	events, err := collect(rows, func(s scanner) (domain.StatusEvent, error) {
		var (
			e                    domain.StatusEvent
			id, tid, actor       pgtype.UUID
			action, from, toStat string
		)
		if err := s.Scan(&id, &tid, &actor, &action, &from, &toStat, &e.CreatedAt); err != nil {
			return domain.StatusEvent{}, err
		}
		e.ID = uuid.UUID(id.Bytes)
		e.TripID = uuid.UUID(tid.Bytes)
		e.ActorID = uuidPtr(actor)
		e.Action = domain.Action(action)
		e.From = domain.Status(from)
		e.To = domain.Status(toStat)
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("repo.StatusEventRepo.ListByTripID: %w", err)
	}
	return events, nil
}
