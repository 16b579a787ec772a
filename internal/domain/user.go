package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Description  string
	CityID       *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// City is seeded reference data used for trip destinations and meetups.
type City struct {
	ID   uuid.UUID
	Name string
}
