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

// MeetupRepo persists meetups attached to trips.
type MeetupRepo interface {
	Create(ctx context.Context, m domain.Meetup) (domain.Meetup, error)

	// GetByID is scoped by tripID so a meetup id from another trip is not found.
	GetByID(ctx context.Context, tripID, meetupID uuid.UUID) (domain.Meetup, error)

	// ListByTripID returns a trip's meetups ordered by date and time.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Meetup, error)

	UpdateStatus(ctx context.Context, tripID, meetupID uuid.UUID, status domain.MeetupStatus) error
}

type pgMeetupRepo struct {
	db db
}

// NewMeetupRepo constructs a MeetupRepo backed by the provided db connection.
func NewMeetupRepo(db db) MeetupRepo {
	return &pgMeetupRepo{db: db}
}

const meetupColumns = `id, trip_id, user_id, content, location, city_id, meetup_date, meetup_time, status, created_at`

func (r *pgMeetupRepo) Create(ctx context.Context, m domain.Meetup) (domain.Meetup, error) {
	q := `
		INSERT INTO meetups (trip_id, user_id, content, location, city_id, meetup_date, meetup_time, status)
		VALUES (@trip_id, @user_id, @content, @location, @city_id, @meetup_date, @meetup_time, @status)
		RETURNING ` + meetupColumns

	t := m.Time
	result, err := scanMeetup(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id":     m.TripID,
		"user_id":     m.UserID,
		"content":     m.Content,
		"location":    m.Location,
		"city_id":     m.CityID,
		"meetup_date": pgtype.Date{Time: m.Date, Valid: true},
		"meetup_time": timeOfDayArg(&t),
		"status":      string(m.Status),
	}))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Meetup{}, fmt.Errorf("repo.MeetupRepo.Create: %w: unknown trip or city", domain.ErrValidation)
		}
		return domain.Meetup{}, fmt.Errorf("repo.MeetupRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgMeetupRepo) GetByID(ctx context.Context, tripID, meetupID uuid.UUID) (domain.Meetup, error) {
	q := `SELECT ` + meetupColumns + ` FROM meetups WHERE id = @id AND trip_id = @trip_id`
	result, err := scanMeetup(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": meetupID, "trip_id": tripID}))
	if err != nil {
		return domain.Meetup{}, fmt.Errorf("repo.MeetupRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgMeetupRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Meetup, error) {
	q := `SELECT ` + meetupColumns + ` FROM meetups WHERE trip_id = @trip_id ORDER BY meetup_date, meetup_time, id`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.MeetupRepo.ListByTripID: %w", err)
	}
	out, err := collect(rows, scanMeetup)
	if err != nil {
		return nil, fmt.Errorf("repo.MeetupRepo.ListByTripID: %w", err)
	}
	return out, nil
}

func (r *pgMeetupRepo) UpdateStatus(ctx context.Context, tripID, meetupID uuid.UUID, status domain.MeetupStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE meetups SET status = @status WHERE id = @id AND trip_id = @trip_id`,
		pgx.NamedArgs{"id": meetupID, "trip_id": tripID, "status": string(status)})
	if err != nil {
		return fmt.Errorf("repo.MeetupRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.MeetupRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func scanMeetup(s scanner) (domain.Meetup, error) {
	var (
		m      domain.Meetup
		id     pgtype.UUID
		tripID pgtype.UUID
		userID pgtype.UUID
		cityID pgtype.UUID
		date   pgtype.Date
		t      pgtype.Time
		status string
	)
	err := s.Scan(&id, &tripID, &userID, &m.Content, &m.Location, &cityID, &date, &t, &status, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Meetup{}, domain.ErrNotFound
		}
		return domain.Meetup{}, err
	}
	m.ID = uuid.UUID(id.Bytes)
	m.TripID = uuid.UUID(tripID.Bytes)
	m.UserID = uuid.UUID(userID.Bytes)
	m.CityID = uuid.UUID(cityID.Bytes)
	m.Date = date.Time
	if tod := timeOfDayPtr(t); tod != nil {
		m.Time = *tod
	}
	m.Status = domain.MeetupStatus(status)
	return m, nil
}
