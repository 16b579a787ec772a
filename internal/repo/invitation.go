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

// InvitationRepo persists pending trip invitations, one per (trip, user).
type InvitationRepo interface {
	// Create stores an invitation. Returns domain.ErrConflict when the user
	// already has a pending invitation to the trip.
	Create(ctx context.Context, inv domain.Invitation) error

	// Get returns the pending invitation, or domain.ErrNotFound.
	Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Invitation, error)

	// ListForUser returns the user's pending invitations, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Invitation, error)

	// Delete removes the invitation. Returns domain.ErrNotFound if there was none.
	Delete(ctx context.Context, tripID, userID uuid.UUID) error
}

type pgInvitationRepo struct {
	db db
}

// NewInvitationRepo constructs an InvitationRepo backed by the provided db connection.
func NewInvitationRepo(db db) InvitationRepo {
	return &pgInvitationRepo{db: db}
}

const invitationSelect = `
	SELECT i.trip_id, t.title, i.user_id, i.invited_by, i.invited_at
	FROM trip_invitations i
	JOIN trips t ON t.id = i.trip_id`

func (r *pgInvitationRepo) Create(ctx context.Context, inv domain.Invitation) error {
	const q = `
		INSERT INTO trip_invitations (trip_id, user_id, invited_by, invited_at)
		VALUES (@trip_id, @user_id, @invited_by, @invited_at)`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"trip_id":    inv.TripID,
		"user_id":    inv.UserID,
		"invited_by": inv.InvitedBy,
		"invited_at": inv.InvitedAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("repo.InvitationRepo.Create: %w: user is already invited", domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("repo.InvitationRepo.Create: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.InvitationRepo.Create: %w", err)
	}
	return nil
}

func (r *pgInvitationRepo) Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Invitation, error) {
	q := invitationSelect + ` WHERE i.trip_id = @trip_id AND i.user_id = @user_id`
	inv, err := scanInvitation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}))
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("repo.InvitationRepo.Get: %w", err)
	}
	return inv, nil
}

func (r *pgInvitationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Invitation, error) {
	q := invitationSelect + ` WHERE i.user_id = @user_id ORDER BY i.invited_at DESC`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.InvitationRepo.ListForUser: %w", err)
	}
	out, err := collect(rows, scanInvitation)
	if err != nil {
		return nil, fmt.Errorf("repo.InvitationRepo.ListForUser: %w", err)
	}
	return out, nil
}

func (r *pgInvitationRepo) Delete(ctx context.Context, tripID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trip_invitations WHERE trip_id = @trip_id AND user_id = @user_id`,
		pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.InvitationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.InvitationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanInvitation(s scanner) (domain.Invitation, error) {
	var (
		inv       domain.Invitation
		tripID    pgtype.UUID
		userID    pgtype.UUID
		invitedBy pgtype.UUID
	)
	if err := s.Scan(&tripID, &inv.TripTitle, &userID, &invitedBy, &inv.InvitedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invitation{}, domain.ErrNotFound
		}
		return domain.Invitation{}, err
	}
	inv.TripID = uuid.UUID(tripID.Bytes)
	inv.UserID = uuid.UUID(userID.Bytes)
	inv.InvitedBy = uuid.UUID(invitedBy.Bytes)
	return inv, nil
}
