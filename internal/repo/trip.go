package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a test double.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id and timestamps populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// GetForUpdate is GetByID with a row lock held until the transaction ends.
	// Admission control and status transitions read the trip through it so
	// concurrent joins serialize on the trip row.
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// Update overwrites the editable fields (not status) and returns the
	// updated record. Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// UpdateStatus persists a lifecycle transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, changedAt time.Time) error

	// ListVisible returns one page of trips visible to userID under filter,
	// ordered by status_changed_at descending, and the total match count.
	ListVisible(ctx context.Context, userID uuid.UUID, filter domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `
	t.id, t.title, t.description, t.creator_id, t.destination_city_id,
	t.definite_date, t.start_date, t.end_date, t.budget, t.max_participants,
	t.status, t.status_changed_at, t.created_at, t.updated_at`

func tripArgs(trip domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":                  trip.ID,
		"title":               trip.Title,
		"description":         trip.Description,
		"creator_id":          trip.CreatorID,
		"destination_city_id": trip.DestinationCityID, // nil becomes NULL
		"definite_date":       trip.DefiniteDate,
		"start_date":          trip.StartDate,
		"end_date":            trip.EndDate,
		"budget":              trip.Budget,
		"max_participants":    trip.MaxParticipants,
		"status":              string(trip.Status),
	}
}

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips AS t (title, description, creator_id, destination_city_id,
		                        definite_date, start_date, end_date, budget, max_participants, status)
		VALUES (@title, @description, @creator_id, @destination_city_id,
		        @definite_date, @start_date, @end_date, @budget, @max_participants, @status)
		RETURNING` + tripColumns

	result, err := scanTrip(r.db.QueryRow(ctx, q, tripArgs(trip)))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w: unknown creator or destination city", domain.ErrValidation)
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	q := `SELECT` + tripColumns + ` FROM trips t WHERE t.id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetForUpdate retrieves a trip and locks its row.
func (r *pgTripRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	q := `SELECT` + tripColumns + ` FROM trips t WHERE t.id = @id FOR UPDATE`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetForUpdate: %w", err)
	}
	return result, nil
}

// Update overwrites the editable fields of a trip and returns the updated record.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips AS t
		SET title               = @title,
		    description         = @description,
		    destination_city_id = @destination_city_id,
		    definite_date       = @definite_date,
		    start_date          = @start_date,
		    end_date            = @end_date,
		    budget              = @budget,
		    max_participants    = @max_participants,
		    updated_at          = now()
		WHERE t.id = @id
		RETURNING` + tripColumns

	result, err := scanTrip(r.db.QueryRow(ctx, q, tripArgs(trip)))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w: unknown destination city", domain.ErrValidation)
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// UpdateStatus writes the status columns only.
func (r *pgTripRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, changedAt time.Time) error {
	const q = `
		UPDATE trips
		SET status = @status, status_changed_at = @changed_at, updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": string(status), "changed_at": changedAt})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

const participates = `EXISTS (SELECT 1 FROM trip_participants p WHERE p.trip_id = t.id AND p.user_id = @user_id)`

// scopeClause mirrors domain.TripFilter.Visible for the scope part.
func scopeClause(s domain.Scope) string {
	switch s {
	case domain.ScopeJoined:
		return participates
	case domain.ScopeExplore:
		return `t.status = 'open' AND NOT ` + participates
	default:
		return `t.status <> 'cancelled' AND (t.status = 'open' OR ` + participates + `)`
	}
}

// facetClause mirrors the facet part of domain.TripFilter.Visible. A NULL
// parameter disables its facet.
const facetClause = `
	AND (@destination::uuid IS NULL OR t.destination_city_id = @destination)
	AND (@start_from::date IS NULL OR COALESCE(t.definite_date, t.start_date) >= @start_from)
	AND (@end_by::date IS NULL OR COALESCE(t.definite_date, t.end_date) <= @end_by)
	AND (@bracket::int = 0
	     OR (@bracket = 1 AND t.budget < 20)
	     OR (@bracket = 2 AND t.budget >= 20 AND t.budget <= 45)
	     OR (@bracket = 3 AND t.budget > 45))`

// ListVisible runs the visibility query and a matching count.
func (r *pgTripRepo) ListVisible(ctx context.Context, userID uuid.UUID, filter domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	where := ` FROM trips t WHERE ` + scopeClause(filter.Scope) + facetClause

	args := pgx.NamedArgs{
		"user_id":     userID,
		"destination": filter.DestinationCityID,
		"start_from":  filter.StartFrom,
		"end_by":      filter.EndBy,
		"bracket":     int(filter.Budget),
		"limit":       p.Limit,
		"offset":      p.Offset(),
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*)`+where, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListVisible: count: %w", err)
	}

	q := `SELECT` + tripColumns + where + `
		ORDER BY t.status_changed_at DESC, t.id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListVisible: %w", err)
	}
	trips, err := collect(rows, scanTrip)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListVisible: %w", err)
	}
	return trips, total, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and nullable column conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		creatorID pgtype.UUID
		cityID    pgtype.UUID
		definite  pgtype.Date
		start     pgtype.Date
		end       pgtype.Date
		budget    pgtype.Float8
		maxP      pgtype.Int4
		status    string
	)

	err := s.Scan(&id, &t.Title, &t.Description, &creatorID, &cityID,
		&definite, &start, &end, &budget, &maxP,
		&status, &t.StatusChangedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.CreatorID = uuid.UUID(creatorID.Bytes)
	t.DestinationCityID = uuidPtr(cityID)
	t.DefiniteDate = datePtr(definite)
	t.StartDate = datePtr(start)
	t.EndDate = datePtr(end)
	t.Budget = floatPtr(budget)
	t.MaxParticipants = intPtr(maxP)
	t.Status = domain.Status(status)

	return t, nil
}
