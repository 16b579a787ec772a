package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// ParticipationService manages joining, leaving and invitations.
type ParticipationService struct {
	store  repo.Store
	events EventPublisher
	now    func() time.Time
}

// NewParticipationService constructs a ParticipationService.
func NewParticipationService(store repo.Store, events EventPublisher) *ParticipationService {
	return &ParticipationService{store: store, events: events, now: time.Now}
}

// Join admits userID to the trip. The trip row stays locked for the whole
// check-and-insert, so concurrent joins can never push the participant count
// past max_participants. A trip found full is closed before the join is
// rejected, and that closure is kept.
func (s *ParticipationService) Join(ctx context.Context, userID, tripID uuid.UUID) (domain.Participation, error) {
	now := s.now()
	var (
		joined  domain.Participation
		joinErr error
		events  []domain.TripEvent
	)
	err := s.store.WithinTx(ctx, func(r repo.Repos) error {
		st, err := loadTrip(ctx, r, tripID, userID, true)
		if err != nil {
			return err
		}
		ev, err := enforceCapacity(ctx, r, &st, len(st.participants), now)
		if err != nil {
			return err
		}
		events = appendEvent(events, ev)

		existing := domain.FindParticipation(st.participants, userID)
		p, err := domain.Join(st.trip, userID, existing, now)
		if err != nil {
			// Commit the capacity closure, if any, and report the rejection.
			joinErr = err
			return nil
		}
		if err := r.Participants.Upsert(ctx, p); err != nil {
			return err
		}
		if err := r.Invitations.Delete(ctx, tripID, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		count := len(st.participants)
		if existing == nil {
			count++
		}
		ev, err = enforceCapacity(ctx, r, &st, count, now)
		if err != nil {
			return err
		}
		events = append(events, event(domain.EventJoined, tripID, userID, now))
		events = appendEvent(events, ev)
		joined = p
		return nil
	})
	if err != nil {
		return domain.Participation{}, fmt.Errorf("service.ParticipationService.Join: %w", err)
	}

	publish(ctx, s.events, events...)
	if joinErr != nil {
		return domain.Participation{}, fmt.Errorf("service.ParticipationService.Join: %w", joinErr)
	}
	return joined, nil
}

// Leave removes userID from the trip. The sole editor cannot leave until
// someone else holds editing permissions. Leaving a trip one is not in is a no-op.
func (s *ParticipationService) Leave(ctx context.Context, userID, tripID uuid.UUID) error {
	left := false
	err := s.store.WithinTx(ctx, func(r repo.Repos) error {
		st, err := loadTrip(ctx, r, tripID, userID, true)
		if err != nil {
			return err
		}
		existing := domain.FindParticipation(st.participants, userID)
		if err := domain.CheckLeave(existing, st.participants); err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		left = true
		return r.Participants.Delete(ctx, tripID, userID)
	})
	if err != nil {
		return fmt.Errorf("service.ParticipationService.Leave: %w", err)
	}

	if left {
		publish(ctx, s.events, event(domain.EventLeft, tripID, userID, s.now()))
	}
	return nil
}

// Invite records a pending invitation for inviteeID. Only editors can invite,
// only to open trips, and inviting twice is a no-op.
func (s *ParticipationService) Invite(ctx context.Context, userID, tripID, inviteeID uuid.UUID) error {
	now := s.now()
	created := false
	err := s.store.WithinTx(ctx, func(r repo.Repos) error {
		st, err := loadTrip(ctx, r, tripID, userID, false)
		if err != nil {
			return err
		}
		if err := requireEditor(st.access); err != nil {
			return err
		}
		if st.trip.Status != domain.StatusOpen {
			return fmt.Errorf("%w: this trip is closed for new participants", domain.ErrTripClosed)
		}
		if domain.FindParticipation(st.participants, inviteeID) != nil {
			return fmt.Errorf("%w: user already participates in this trip", domain.ErrConflict)
		}
		if _, err := r.Users.GetByID(ctx, inviteeID); err != nil {
			return err
		}

		_, err = r.Invitations.Get(ctx, tripID, inviteeID)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		created = true
		return r.Invitations.Create(ctx, domain.Invitation{
			TripID:    tripID,
			UserID:    inviteeID,
			InvitedBy: userID,
			InvitedAt: now,
		})
	})
	if err != nil {
		return fmt.Errorf("service.ParticipationService.Invite: %w", err)
	}

	if created {
		ev := event(domain.EventInvited, tripID, userID, now)
		ev.SubjectID = &inviteeID
		publish(ctx, s.events, ev)
	}
	return nil
}

// ListInvitations returns userID's pending invitations.
func (s *ParticipationService) ListInvitations(ctx context.Context, userID uuid.UUID) ([]domain.Invitation, error) {
	invs, err := s.store.Repos().Invitations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ParticipationService.ListInvitations: %w", err)
	}
	return invs, nil
}

// AcceptInvitation joins the trip on a pending invitation. The join follows
// the normal admission rules and consumes the invitation.
func (s *ParticipationService) AcceptInvitation(ctx context.Context, userID, tripID uuid.UUID) (domain.Participation, error) {
	if _, err := s.store.Repos().Invitations.Get(ctx, tripID, userID); err != nil {
		return domain.Participation{}, fmt.Errorf("service.ParticipationService.AcceptInvitation: %w", err)
	}
	p, err := s.Join(ctx, userID, tripID)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("service.ParticipationService.AcceptInvitation: %w", err)
	}
	return p, nil
}

// DeclineInvitation drops a pending invitation.
func (s *ParticipationService) DeclineInvitation(ctx context.Context, userID, tripID uuid.UUID) error {
	if err := s.store.Repos().Invitations.Delete(ctx, tripID, userID); err != nil {
		return fmt.Errorf("service.ParticipationService.DeclineInvitation: %w", err)
	}
	return nil
}
