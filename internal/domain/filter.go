package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scope selects which trips a user sees before facets are applied.
type Scope string

const (
	// ScopeAll shows open trips plus any trip the user is in, never cancelled ones.
	ScopeAll Scope = ""
	// ScopeJoined shows every trip the user participates in, whatever its status.
	ScopeJoined Scope = "joined"
	// ScopeExplore shows open trips the user has not joined.
	ScopeExplore Scope = "explore"
)

// BudgetBracket is a coarse price filter.
type BudgetBracket int

const (
	BudgetAny      BudgetBracket = iota
	BudgetCheap                  // < 20
	BudgetModerate               // 20..45 inclusive
	BudgetPricey                 // > 45
)

// TripFilter is the parsed form of the trip list query string.
type TripFilter struct {
	Scope             Scope
	DestinationCityID *uuid.UUID
	StartFrom         *time.Time
	EndBy             *time.Time
	Budget            BudgetBracket
}

// FilterParams holds the raw query values.
type FilterParams struct {
	Filter      string
	Destination string
	StartDate   string
	EndDate     string
	Budget      string
}

// ParseTripFilter builds a TripFilter from raw query values.
// Any value that does not parse is ignored rather than rejected.
func ParseTripFilter(p FilterParams) TripFilter {
	var f TripFilter

	switch Scope(strings.ToLower(strings.TrimSpace(p.Filter))) {
	case ScopeJoined:
		f.Scope = ScopeJoined
	case ScopeExplore:
		f.Scope = ScopeExplore
	}

	if id, err := uuid.Parse(strings.TrimSpace(p.Destination)); err == nil {
		f.DestinationCityID = &id
	}
	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(p.StartDate)); err == nil {
		f.StartFrom = &d
	}
	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(p.EndDate)); err == nil {
		f.EndBy = &d
	}

	switch strings.ToLower(strings.TrimSpace(p.Budget)) {
	case "1", "cheap":
		f.Budget = BudgetCheap
	case "2", "moderate":
		f.Budget = BudgetModerate
	case "3", "pricey", "expensive":
		f.Budget = BudgetPricey
	}
	return f
}

// Visible reports whether trip passes the filter for a user, given whether
// that user participates in it. Repos implement the same predicate in SQL;
// this version is the reference used by tests and in-memory callers.
func (f TripFilter) Visible(trip Trip, participates bool) bool {
	switch f.Scope {
	case ScopeJoined:
		if !participates {
			return false
		}
	case ScopeExplore:
		if trip.Status != StatusOpen || participates {
			return false
		}
	default:
		if trip.Status == StatusCancelled {
			return false
		}
		if trip.Status != StatusOpen && !participates {
			return false
		}
	}
	return f.matchesFacets(trip)
}

func (f TripFilter) matchesFacets(trip Trip) bool {
	if f.DestinationCityID != nil {
		if trip.DestinationCityID == nil || *trip.DestinationCityID != *f.DestinationCityID {
			return false
		}
	}
	if f.StartFrom != nil {
		start := trip.EffectiveStart()
		if start == nil || start.Before(*f.StartFrom) {
			return false
		}
	}
	if f.EndBy != nil {
		end := trip.EffectiveEnd()
		if end == nil || end.After(*f.EndBy) {
			return false
		}
	}
	if f.Budget != BudgetAny {
		if trip.Budget == nil {
			return false
		}
		b := *trip.Budget
		switch f.Budget {
		case BudgetCheap:
			return b < 20
		case BudgetModerate:
			return b >= 20 && b <= 45
		case BudgetPricey:
			return b > 45
		}
	}
	return true
}

// EffectiveStart is the definite date or the range start.
func (t Trip) EffectiveStart() *time.Time {
	if t.DefiniteDate != nil {
		return t.DefiniteDate
	}
	return t.StartDate
}

// EffectiveEnd is the definite date or the range end.
func (t Trip) EffectiveEnd() *time.Time {
	if t.DefiniteDate != nil {
		return t.DefiniteDate
	}
	return t.EndDate
}
