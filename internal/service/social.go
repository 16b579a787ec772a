package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// CommentService handles the trip comment thread.
type CommentService struct {
	store  repo.Store
	events EventPublisher
}

// NewCommentService constructs a CommentService.
func NewCommentService(store repo.Store, events EventPublisher) *CommentService {
	return &CommentService{store: store, events: events}
}

// Add posts a comment. Only participants can comment.
func (s *CommentService) Add(ctx context.Context, userID, tripID uuid.UUID, content string) (domain.Comment, error) {
	content, err := domain.ValidateComment(content)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("service.CommentService.Add: %w", err)
	}

	r := s.store.Repos()
	st, err := loadTrip(ctx, r, tripID, userID, false)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("service.CommentService.Add: %w", err)
	}
	if !st.access.IsParticipant {
		return domain.Comment{}, fmt.Errorf("service.CommentService.Add: %w: join the trip to comment", domain.ErrForbidden)
	}

	c, err := r.Comments.Create(ctx, domain.Comment{TripID: tripID, AuthorID: userID, Content: content})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("service.CommentService.Add: %w", err)
	}

	ev := event(domain.EventCommentAdded, tripID, userID, c.CreatedAt)
	ev.SubjectID = &c.ID
	publish(ctx, s.events, ev)
	return c, nil
}

// List returns one page of a trip's comments, newest first.
func (s *CommentService) List(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Comment], error) {
	r := s.store.Repos()
	if _, err := r.Trips.GetByID(ctx, tripID); err != nil {
		return domain.Page[domain.Comment]{}, fmt.Errorf("service.CommentService.List: %w", err)
	}
	items, total, err := r.Comments.ListByTripID(ctx, tripID, p)
	if err != nil {
		return domain.Page[domain.Comment]{}, fmt.Errorf("service.CommentService.List: %w", err)
	}
	return domain.Page[domain.Comment]{Items: items, Total: total}, nil
}

// MeetupService handles meetups attached to a trip.
type MeetupService struct {
	store  repo.Store
	events EventPublisher
	now    func() time.Time
}

// NewMeetupService constructs a MeetupService.
func NewMeetupService(store repo.Store, events EventPublisher) *MeetupService {
	return &MeetupService{store: store, events: events, now: time.Now}
}

// Create schedules a meetup. Editors only.
func (s *MeetupService) Create(ctx context.Context, userID, tripID uuid.UUID, in domain.MeetupInput) (domain.Meetup, error) {
	m, err := domain.BuildMeetup(tripID, userID, in)
	if err != nil {
		return domain.Meetup{}, fmt.Errorf("service.MeetupService.Create: %w", err)
	}

	r := s.store.Repos()
	st, err := loadTrip(ctx, r, tripID, userID, false)
	if err != nil {
		return domain.Meetup{}, fmt.Errorf("service.MeetupService.Create: %w", err)
	}
	if err := requireEditor(st.access); err != nil {
		return domain.Meetup{}, fmt.Errorf("service.MeetupService.Create: %w", err)
	}

	created, err := r.Meetups.Create(ctx, m)
	if err != nil {
		return domain.Meetup{}, fmt.Errorf("service.MeetupService.Create: %w", err)
	}

	ev := event(domain.EventMeetupCreated, tripID, userID, s.now())
	ev.SubjectID = &created.ID
	publish(ctx, s.events, ev)
	return created, nil
}

// List returns a trip's meetups in date order.
func (s *MeetupService) List(ctx context.Context, tripID uuid.UUID) ([]domain.Meetup, error) {
	r := s.store.Repos()
	if _, err := r.Trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.MeetupService.List: %w", err)
	}
	out, err := r.Meetups.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.MeetupService.List: %w", err)
	}
	return out, nil
}

// Advance moves a meetup forward to status. Editors only.
func (s *MeetupService) Advance(ctx context.Context, userID, tripID, meetupID uuid.UUID, status domain.MeetupStatus) (domain.Meetup, error) {
	var m domain.Meetup
	err := s.store.WithinTx(ctx, func(r repo.Repos) error {
		st, err := loadTrip(ctx, r, tripID, userID, false)
		if err != nil {
			return err
		}
		if err := requireEditor(st.access); err != nil {
			return err
		}
		if m, err = r.Meetups.GetByID(ctx, tripID, meetupID); err != nil {
			return err
		}
		if err := m.Advance(status); err != nil {
			return err
		}
		return r.Meetups.UpdateStatus(ctx, tripID, meetupID, m.Status)
	})
	if err != nil {
		return domain.Meetup{}, fmt.Errorf("service.MeetupService.Advance: %w", err)
	}

	ev := event(domain.EventMeetupAdvanced, tripID, userID, s.now())
	ev.SubjectID = &meetupID
	publish(ctx, s.events, ev)
	return m, nil
}
