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

// UserRepo persists user accounts.
type UserRepo interface {
	// Create inserts a user. Returns domain.ErrConflict when the email is taken.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdateProfile overwrites name, description and home city.
	UpdateProfile(ctx context.Context, u domain.User) (domain.User, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, email, name, password_hash, description, city_id, created_at, updated_at`

func (r *pgUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	q := `
		INSERT INTO users (email, name, password_hash, description, city_id)
		VALUES (@email, @name, @password_hash, @description, @city_id)
		RETURNING ` + userColumns

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"email":         u.Email,
		"name":          u.Name,
		"password_hash": u.PasswordHash,
		"description":   u.Description,
		"city_id":       u.CityID,
	}))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w: email %q is already registered", domain.ErrConflict, u.Email)
		}
		if isForeignKeyViolation(err) {
			return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w: unknown city", domain.ErrValidation)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = @id`
	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower(@email)`
	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) UpdateProfile(ctx context.Context, u domain.User) (domain.User, error) {
	q := `
		UPDATE users
		SET name = @name, description = @description, city_id = @city_id, updated_at = now()
		WHERE id = @id
		RETURNING ` + userColumns

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":          u.ID,
		"name":        u.Name,
		"description": u.Description,
		"city_id":     u.CityID,
	}))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateProfile: %w: unknown city", domain.ErrValidation)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateProfile: %w", err)
	}
	return result, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u      domain.User
		id     pgtype.UUID
		cityID pgtype.UUID
	)
	err := s.Scan(&id, &u.Email, &u.Name, &u.PasswordHash, &u.Description, &cityID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	u.ID = uuid.UUID(id.Bytes)
	u.CityID = uuidPtr(cityID)
	return u, nil
}
