package repo

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// Helpers for the nullable column types pgx scans into pgtype values.

func uuidPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func datePtr(v pgtype.Date) *time.Time {
	if !v.Valid {
		return nil
	}
	d := v.Time
	return &d
}

func floatPtr(v pgtype.Float8) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}

func timeOfDayArg(t *domain.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: time.Duration(*t).Microseconds(), Valid: true}
}

func timeOfDayPtr(v pgtype.Time) *domain.TimeOfDay {
	if !v.Valid {
		return nil
	}
	t := domain.TimeOfDay(time.Duration(v.Microseconds) * time.Microsecond)
	return &t
}

// uuidStrings renders ids for an `= ANY(@ids::uuid[])` argument.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
