package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// TokenIssuer signs session tokens. Implemented by *auth.Issuer.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

// Registration is the input to UserService.Register.
type Registration struct {
	Email    string
	Name     string
	Password string
}

// Profile is the editable part of a user.
type Profile struct {
	Name        string
	Description string
	CityID      *uuid.UUID
}

// Session is a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

const (
	minPasswordLen = 8
	maxNameLen     = 100
)

// UserService handles registration, login and profiles.
type UserService struct {
	users  repo.UserRepo
	tokens TokenIssuer
}

// NewUserService constructs a UserService.
func NewUserService(users repo.UserRepo, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register creates an account. Emails are stored trimmed and lower-cased.
func (s *UserService) Register(ctx context.Context, in Registration) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w: a valid email is required", domain.ErrValidation)
	}
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w: name is required and at most %d characters", domain.ErrValidation, maxNameLen)
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w", err)
	}
	u, err := s.users.Create(ctx, domain.User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues a token. An unknown email and a wrong
// password fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, fmt.Errorf("service.UserService.Login: %w: invalid email or password", domain.ErrUnauthenticated)
		}
		return Session{}, fmt.Errorf("service.UserService.Login: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return Session{}, fmt.Errorf("service.UserService.Login: %w: invalid email or password", domain.ErrUnauthenticated)
	}

	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("service.UserService.Login: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Get: %w", err)
	}
	return u, nil
}

// UpdateProfile overwrites the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, p Profile) (domain.User, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateProfile: %w: name is required and at most %d characters", domain.ErrValidation, maxNameLen)
	}
	u, err := s.users.UpdateProfile(ctx, domain.User{ID: id, Name: name, Description: p.Description, CityID: p.CityID})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateProfile: %w", err)
	}
	return u, nil
}

// CityService serves the seeded city list.
type CityService struct {
	cities repo.CityRepo
}

// NewCityService constructs a CityService.
func NewCityService(cities repo.CityRepo) *CityService {
	return &CityService{cities: cities}
}

// List returns every city ordered by name.
func (s *CityService) List(ctx context.Context) ([]domain.City, error) {
	cities, err := s.cities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CityService.List: %w", err)
	}
	return cities, nil
}
