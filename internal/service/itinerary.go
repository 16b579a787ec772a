package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
)

// Itinerary returns one flat row per stop of the trip, for JSON or CSV export.
// A trip with no stops yields a single row with empty stop fields.
// Any signed-in user may read it; membership is not required.
func (s *TripService) Itinerary(ctx context.Context, userID, tripID uuid.UUID) ([]domain.ItineraryRow, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("service.TripService.Itinerary: %w", domain.ErrUnauthenticated)
	}
	r := s.store.Repos()
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Itinerary: %w", err)
	}
	stops, err := r.Stops.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Itinerary: %w", err)
	}
	return itineraryRows(trip, stops), nil
}

func itineraryRows(trip domain.Trip, stops []domain.Stop) []domain.ItineraryRow {
	base := domain.ItineraryRow{
		TripID:     trip.ID.String(),
		TripTitle:  trip.Title,
		TripStatus: trip.Status,
		TripDate:   formatTripDate(trip),
		TripBudget: formatAmount(trip.Budget),
	}
	if len(stops) == 0 {
		return []domain.ItineraryRow{base}
	}

	rows := make([]domain.ItineraryRow, 0, len(stops))
	for _, st := range stops {
		row := base
		row.StopPosition = st.Position
		row.StopName = st.Name
		row.StopPlace = st.Place
		row.StopType = st.Type
		row.StopNotes = st.Notes
		row.BudgetPerPerson = formatAmount(st.BudgetPerPerson)
		if st.Time != nil {
			row.StopTime = st.Time.String()
		}
		rows = append(rows, row)
	}
	return rows
}

func formatTripDate(t domain.Trip) string {
	if t.DefiniteDate != nil {
		return t.DefiniteDate.Format(time.DateOnly)
	}
	var start, end string
	if t.StartDate != nil {
		start = t.StartDate.Format(time.DateOnly)
	}
	if t.EndDate != nil {
		end = t.EndDate.Format(time.DateOnly)
	}
	if start == "" && end == "" {
		return ""
	}
	return start + ".." + end
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
