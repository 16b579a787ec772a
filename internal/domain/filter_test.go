package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
)

func TestParseTripFilter_IgnoresGarbage(t *testing.T) {
	f := domain.ParseTripFilter(domain.FilterParams{
		Filter:      "bogus",
		Destination: "not-a-uuid",
		StartDate:   "06/01/2025",
		EndDate:     "",
		Budget:      "9",
	})

	assert.Equal(t, domain.TripFilter{}, f)
}

func TestParseTripFilter_AllFields(t *testing.T) {
	city := uuid.New()
	f := domain.ParseTripFilter(domain.FilterParams{
		Filter:      "Explore",
		Destination: city.String(),
		StartDate:   "2025-06-01",
		EndDate:     "2025-06-30",
		Budget:      "2",
	})

	assert.Equal(t, domain.ScopeExplore, f.Scope)
	require.NotNil(t, f.DestinationCityID)
	assert.Equal(t, city, *f.DestinationCityID)
	require.NotNil(t, f.StartFrom)
	require.NotNil(t, f.EndBy)
	assert.Equal(t, domain.BudgetModerate, f.Budget)
}

func TestTripFilter_Scopes(t *testing.T) {
	type row struct {
		status       domain.Status
		participates bool
		all, joined  bool
		explore      bool
	}
	rows := []row{
		{domain.StatusOpen, false, true, false, true},
		{domain.StatusOpen, true, true, true, false},
		{domain.StatusClosed, false, false, false, false},
		{domain.StatusClosed, true, true, true, false},
		{domain.StatusFinalized, true, true, true, false},
		{domain.StatusCancelled, true, false, true, false},
		{domain.StatusCancelled, false, false, false, false},
	}
	for _, r := range rows {
		trip := tripFixture(uuid.New())
		trip.Status = r.status

		assert.Equal(t, r.all, domain.TripFilter{}.Visible(trip, r.participates), "all: %s participates=%v", r.status, r.participates)
		assert.Equal(t, r.joined, domain.TripFilter{Scope: domain.ScopeJoined}.Visible(trip, r.participates), "joined: %s participates=%v", r.status, r.participates)
		assert.Equal(t, r.explore, domain.TripFilter{Scope: domain.ScopeExplore}.Visible(trip, r.participates), "explore: %s participates=%v", r.status, r.participates)
	}
}

func TestTripFilter_ExploreNeverReturnsJoinedTrips(t *testing.T) {
	explore := domain.TripFilter{Scope: domain.ScopeExplore}
	for _, s := range []domain.Status{domain.StatusOpen, domain.StatusClosed, domain.StatusFinalized, domain.StatusCancelled} {
		trip := tripFixture(uuid.New())
		trip.Status = s
		assert.False(t, explore.Visible(trip, true), "status %s", s)
	}
}

func TestTripFilter_Facets(t *testing.T) {
	city := uuid.New()
	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	budget := 30.0

	trip := tripFixture(uuid.New())
	trip.DestinationCityID = &city
	trip.StartDate = &start
	trip.EndDate = &end
	trip.Budget = &budget

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	other := uuid.New()
	late := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, domain.TripFilter{DestinationCityID: &city, StartFrom: &from, EndBy: &to, Budget: domain.BudgetModerate}.Visible(trip, false))
	assert.False(t, domain.TripFilter{DestinationCityID: &other}.Visible(trip, false))
	assert.False(t, domain.TripFilter{StartFrom: &late}.Visible(trip, false))
	assert.False(t, domain.TripFilter{EndBy: &late}.Visible(trip, false))
	assert.False(t, domain.TripFilter{Budget: domain.BudgetCheap}.Visible(trip, false))
	assert.False(t, domain.TripFilter{Budget: domain.BudgetPricey}.Visible(trip, false))

	definite := tripFixture(uuid.New())
	definite.DefiniteDate = &start
	assert.True(t, domain.TripFilter{StartFrom: &from, EndBy: &to}.Visible(definite, false), "definite date counts as both ends")

	noBudget := tripFixture(uuid.New())
	assert.False(t, domain.TripFilter{Budget: domain.BudgetCheap}.Visible(noBudget, false))
}
