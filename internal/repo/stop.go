package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// StopRepo defines the persistence operations for Stops.
// Stops are never edited one by one: an update replaces the whole set.
type StopRepo interface {
	// ListByTripID returns all stops for a trip ordered by position ascending.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error)

	// Replace deletes every stop of the trip and inserts stops in its place.
	// Must run inside a transaction so readers never see a partial set.
	Replace(ctx context.Context, tripID uuid.UUID, stops []domain.Stop) ([]domain.Stop, error)
}

// pgStopRepo is the Postgres implementation of StopRepo.
type pgStopRepo struct {
	db db
}

// NewStopRepo constructs a StopRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStopRepo(db db) StopRepo {
	return &pgStopRepo{db: db}
}

const stopColumns = `id, trip_id, name, place, stop_time, budget_per_person, notes, stop_type, position, created_at`

func (r *pgStopRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error) {
	q := `SELECT ` + stopColumns + ` FROM trip_stops WHERE trip_id = @trip_id ORDER BY position, created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: %w", err)
	}
	stops, err := collect(rows, scanStop)
	if err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: %w", err)
	}
	return stops, nil
}

func (r *pgStopRepo) Replace(ctx context.Context, tripID uuid.UUID, stops []domain.Stop) ([]domain.Stop, error) {
	if _, err := r.db.Exec(ctx, `DELETE FROM trip_stops WHERE trip_id = @trip_id`, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return nil, fmt.Errorf("repo.StopRepo.Replace: delete: %w", err)
	}

	q := `
		INSERT INTO trip_stops (trip_id, name, place, stop_time, budget_per_person, notes, stop_type, position)
		VALUES (@trip_id, @name, @place, @stop_time, @budget_per_person, @notes, @stop_type, @position)
		RETURNING ` + stopColumns

	out := make([]domain.Stop, 0, len(stops))
	for _, s := range stops {
		created, err := scanStop(r.db.QueryRow(ctx, q, pgx.NamedArgs{
			"trip_id":           tripID,
			"name":              s.Name,
			"place":             s.Place,
			"stop_time":         timeOfDayArg(s.Time),
			"budget_per_person": s.BudgetPerPerson,
			"notes":             s.Notes,
			"stop_type":         s.Type,
			"position":          s.Position,
		}))
		if err != nil {
			return nil, fmt.Errorf("repo.StopRepo.Replace: insert: %w", err)
		}
		out = append(out, created)
	}
	return out, nil
}

func scanStop(s scanner) (domain.Stop, error) {
	var (
		st     domain.Stop
		id     pgtype.UUID
		tripID pgtype.UUID
		t      pgtype.Time
		budget pgtype.Float8
	)
	err := s.Scan(&id, &tripID, &st.Name, &st.Place, &t, &budget, &st.Notes, &st.Type, &st.Position, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Stop{}, domain.ErrNotFound
		}
		return domain.Stop{}, err
	}
	st.ID = uuid.UUID(id.Bytes)
	st.TripID = uuid.UUID(tripID.Bytes)
	st.Time = timeOfDayPtr(t)
	st.BudgetPerPerson = floatPtr(budget)
	return st, nil
}
