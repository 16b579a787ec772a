package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// CityRepo reads the seeded cities table.
type CityRepo interface {
	// List returns every city ordered by name.
	List(ctx context.Context) ([]domain.City, error)
}

type pgCityRepo struct {
	db db
}

// NewCityRepo constructs a CityRepo backed by the provided db connection.
func NewCityRepo(db db) CityRepo {
	return &pgCityRepo{db: db}
}

func (r *pgCityRepo) List(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repo.CityRepo.List: %w", err)
	}
	cities, err := collect(rows, func(s scanner) (domain.City, error) {
		var (
			c  domain.City
			id pgtype.UUID
		)
		if err := s.Scan(&id, &c.Name); err != nil {
			return domain.City{}, err
		}
		c.ID = uuid.UUID(id.Bytes)
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("repo.CityRepo.List: %w", err)
	}
	return cities, nil
}
