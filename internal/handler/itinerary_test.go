package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/handler"
)

func itineraryFixture(tripID uuid.UUID) []domain.ItineraryRow {
	base := domain.ItineraryRow{
		TripID:     tripID.String(),
		TripTitle:  "Food tour, day one",
		TripStatus: domain.StatusOpen,
		TripDate:   "2025-06-01..2025-06-03",
		TripBudget: "32.50",
	}
	first, second := base, base
	first.StopPosition, first.StopName, first.StopPlace, first.StopTime, first.StopType, first.BudgetPerPerson =
		0, "Bakery", "Main St", "09:00:00", "Breakfast", "12.50"
	second.StopPosition, second.StopName, second.StopNotes, second.BudgetPerPerson =
		1, "Bar", "bring \"cash\"", "20.00"
	return []domain.ItineraryRow{first, second}
}

func newItineraryHandler(tripID uuid.UUID, rows []domain.ItineraryRow, err error) http.Handler {
	svc := &mockTripServicer{
		itinerary: func(_ context.Context, _, id uuid.UUID) ([]domain.ItineraryRow, error) {
			if id != tripID {
				return nil, domain.ErrNotFound
			}
			return rows, err
		},
	}
	return newHTTPHandler(handler.Services{Trips: svc}, uuid.New())
}

func TestGetItinerary_DefaultJSON(t *testing.T) {
	tripID := uuid.New()

	rec := do(newItineraryHandler(tripID, itineraryFixture(tripID), nil), http.MethodGet, "/trips/"+tripID.String()+"/itinerary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var resp handler.ListResponse[handler.ItineraryRow]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Bakery", resp.Data[0].StopName)
	assert.Equal(t, "32.50", resp.Data[1].TripBudget)
}

func TestGetItinerary_CSV(t *testing.T) {
	tripID := uuid.New()

	rec := do(newItineraryHandler(tripID, itineraryFixture(tripID), nil), http.MethodGet, "/trips/"+tripID.String()+"/itinerary?format=csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "itinerary-"+tripID.String()+".csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one line per stop")
	assert.Equal(t, "trip_id", records[0][0])
	assert.Equal(t, "Food tour, day one", records[1][1], "commas survive quoting")
	assert.Equal(t, "0", records[1][5])
	assert.Equal(t, "bring \"cash\"", records[2][11])
}

func TestGetItinerary_CSV_TripWithoutStops(t *testing.T) {
	tripID := uuid.New()
	rows := []domain.ItineraryRow{{TripID: tripID.String(), TripTitle: "Empty", TripStatus: domain.StatusOpen}}

	rec := do(newItineraryHandler(tripID, rows, nil), http.MethodGet, "/trips/"+tripID.String()+"/itinerary?format=csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[1][5], "no stop position without a stop")
}

func TestGetItinerary_404(t *testing.T) {
	rec := do(newItineraryHandler(uuid.New(), nil, nil), http.MethodGet, "/trips/"+uuid.NewString()+"/itinerary", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetItinerary_500(t *testing.T) {
	tripID := uuid.New()

	rec := do(newItineraryHandler(tripID, nil, fmt.Errorf("boom")), http.MethodGet, "/trips/"+tripID.String()+"/itinerary?format=csv", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
