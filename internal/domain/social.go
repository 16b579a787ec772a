package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Comment is an append-only message on a trip, listed newest first.
type Comment struct {
	ID         uuid.UUID
	TripID     uuid.UUID
	AuthorID   uuid.UUID
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

const maxCommentLen = 1000

// ValidateComment trims content and enforces the length limit.
func ValidateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: comment content is required", ErrValidation)
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return "", fmt.Errorf("%w: comment must be at most %d characters", ErrValidation, maxCommentLen)
	}
	return content, nil
}

// MeetupStatus is the progress of a meetup.
type MeetupStatus string

const (
	MeetupPlanning  MeetupStatus = "PLANNING"
	MeetupHappening MeetupStatus = "HAPPENING"
	MeetupDone      MeetupStatus = "DONE"
)

var meetupOrder = map[MeetupStatus]int{
	MeetupPlanning:  0,
	MeetupHappening: 1,
	MeetupDone:      2,
}

// Meetup is an ad hoc rendezvous attached to a trip, independent of its stops.
type Meetup struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	UserID    uuid.UUID
	Content   string
	Location  string
	CityID    uuid.UUID
	Date      time.Time
	Time      TimeOfDay
	Status    MeetupStatus
	CreatedAt time.Time
}

// MeetupInput is a meetup as submitted by a client.
type MeetupInput struct {
	Content  string
	Location string
	CityID   string
	Date     string
	Time     string
}

// BuildMeetup validates input strictly: unlike stops, a meetup without a
// valid city, date and time is rejected.
func BuildMeetup(tripID, userID uuid.UUID, in MeetupInput) (Meetup, error) {
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return Meetup{}, fmt.Errorf("%w: location is required", ErrValidation)
	}
	cityID, err := uuid.Parse(strings.TrimSpace(in.CityID))
	if err != nil {
		return Meetup{}, fmt.Errorf("%w: please select a valid city", ErrValidation)
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(in.Date))
	if err != nil {
		return Meetup{}, fmt.Errorf("%w: invalid or missing date for the meetup", ErrValidation)
	}
	t, err := time.Parse("15:04", strings.TrimSpace(in.Time))
	if err != nil {
		return Meetup{}, fmt.Errorf("%w: invalid or missing time for the meetup", ErrValidation)
	}
	return Meetup{
		TripID:   tripID,
		UserID:   userID,
		Content:  strings.TrimSpace(in.Content),
		Location: location,
		CityID:   cityID,
		Date:     date,
		Time:     TimeOfDay(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute),
		Status:   MeetupPlanning,
	}, nil
}

// Advance moves a meetup forward. Staying put or going backwards is rejected.
func (m *Meetup) Advance(to MeetupStatus) error {
	target, ok := meetupOrder[to]
	if !ok {
		return fmt.Errorf("%w: unknown meetup status %q", ErrValidation, to)
	}
	if target <= meetupOrder[m.Status] {
		return fmt.Errorf("%w: meetup cannot move from %s to %s", ErrInvalidTransition, m.Status, to)
	}
	m.Status = to
	return nil
}

// Invitation is a pending request for a user to join a trip.
type Invitation struct {
	TripID    uuid.UUID
	TripTitle string
	UserID    uuid.UUID
	InvitedBy uuid.UUID
	InvitedAt time.Time
}
