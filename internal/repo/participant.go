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

// ParticipantRepo persists trip_participants rows.
type ParticipantRepo interface {
	// ListByTripID returns every participant of a trip, oldest first, with the
	// user's display name filled in.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Participation, error)

	// Upsert inserts the row, or updates editing_permissions if the user is
	// already a participant.
	Upsert(ctx context.Context, p domain.Participation) error

	// Delete removes the (trip, user) row. Deleting a missing row is not an error.
	Delete(ctx context.Context, tripID, userID uuid.UUID) error

	// SetEditors grants editing permissions to exactly editorIDs and revokes
	// them from everyone else on the trip.
	SetEditors(ctx context.Context, tripID uuid.UUID, editorIDs []uuid.UUID) error
}

type pgParticipantRepo struct {
	db db
}

// NewParticipantRepo constructs a ParticipantRepo backed by the provided db connection.
func NewParticipantRepo(db db) ParticipantRepo {
	return &pgParticipantRepo{db: db}
}

func (r *pgParticipantRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Participation, error) {
	const q = `
		SELECT p.trip_id, p.user_id, u.name, p.editing_permissions, p.joined_at
		FROM trip_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.trip_id = @trip_id
		ORDER BY p.joined_at, p.user_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ParticipantRepo.ListByTripID: %w", err)
	}
	out, err := collect(rows, scanParticipation)
	if err != nil {
		return nil, fmt.Errorf("repo.ParticipantRepo.ListByTripID: %w", err)
	}
	return out, nil
}

func (r *pgParticipantRepo) Upsert(ctx context.Context, p domain.Participation) error {
	const q = `
		INSERT INTO trip_participants (trip_id, user_id, editing_permissions, joined_at)
		VALUES (@trip_id, @user_id, @editing_permissions, @joined_at)
		ON CONFLICT (trip_id, user_id)
		DO UPDATE SET editing_permissions = EXCLUDED.editing_permissions`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"trip_id":             p.TripID,
		"user_id":             p.UserID,
		"editing_permissions": p.EditingPermissions,
		"joined_at":           p.JoinedAt,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("repo.ParticipantRepo.Upsert: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.ParticipantRepo.Upsert: %w", err)
	}
	return nil
}

func (r *pgParticipantRepo) Delete(ctx context.Context, tripID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM trip_participants WHERE trip_id = @trip_id AND user_id = @user_id`,
		pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.ParticipantRepo.Delete: %w", err)
	}
	return nil
}

func (r *pgParticipantRepo) SetEditors(ctx context.Context, tripID uuid.UUID, editorIDs []uuid.UUID) error {
	const q = `
		UPDATE trip_participants
		SET editing_permissions = (user_id = ANY(@ids::uuid[]))
		WHERE trip_id = @trip_id`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "ids": uuidStrings(editorIDs)})
	if err != nil {
		return fmt.Errorf("repo.ParticipantRepo.SetEditors: %w", err)
	}
	return nil
}

func scanParticipation(s scanner) (domain.Participation, error) {
	var (
		p      domain.Participation
		tripID pgtype.UUID
		userID pgtype.UUID
	)
	if err := s.Scan(&tripID, &userID, &p.UserName, &p.EditingPermissions, &p.JoinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Participation{}, domain.ErrNotFound
		}
		return domain.Participation{}, err
	}
	p.TripID = uuid.UUID(tripID.Bytes)
	p.UserID = uuid.UUID(userID.Bytes)
	return p, nil
}
