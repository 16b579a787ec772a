package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := domain.ParseTimeOfDay("09:30:15")
	require.NoError(t, err)
	assert.Equal(t, "09:30:15", got.String())

	got, err = domain.ParseTimeOfDay("18:05")
	require.NoError(t, err)
	assert.Equal(t, domain.TimeOfDay(18*time.Hour+5*time.Minute), got)

	_, err = domain.ParseTimeOfDay("noonish")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildStops_DropsBlankNamesAndCapsAtMax(t *testing.T) {
	tripID := uuid.New()
	inputs := []domain.StopInput{
		{Name: "Bagels", Place: "Deli", Time: "09:00"},
		{Name: "   "},
		{Name: "Museum", Place: "Downtown"},
		{Name: "Tacos", Place: "Truck"}, // fourth input, past MaxStops
	}

	got := domain.BuildStops(tripID, inputs)

	require.Len(t, got, 2)
	assert.Equal(t, "Bagels", got[0].Name)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, "Museum", got[1].Name)
	assert.Equal(t, 2, got[1].Position, "default position is the submitted index")
	for _, s := range got {
		assert.Equal(t, tripID, s.TripID)
	}
}

func TestBuildStops_LenientFields(t *testing.T) {
	pos := 7
	got := domain.BuildStops(uuid.New(), []domain.StopInput{{
		Name:            "Dinner",
		Time:            "25:99",
		BudgetPerPerson: "a lot",
		Type:            "dinner",
		Position:        &pos,
	}, {
		Name:            "Drinks",
		Time:            "21:15:00",
		BudgetPerPerson: "12.50",
		Type:            "nightcap",
	}})

	require.Len(t, got, 2)
	assert.Nil(t, got[0].Time, "bad time is nulled")
	assert.Nil(t, got[0].BudgetPerPerson, "bad budget is nulled")
	assert.Equal(t, "Dinner", got[0].Type)
	assert.Equal(t, 7, got[0].Position)

	require.NotNil(t, got[1].Time)
	assert.Equal(t, "21:15:00", got[1].Time.String())
	require.NotNil(t, got[1].BudgetPerPerson)
	assert.InDelta(t, 12.5, *got[1].BudgetPerPerson, 0.0001)
	assert.Empty(t, got[1].Type, "unknown type is dropped")
}

func TestDeriveBudget(t *testing.T) {
	manual := 99.0
	stops := domain.BuildStops(uuid.New(), []domain.StopInput{
		{Name: "a", BudgetPerPerson: "10"},
		{Name: "b"},
		{Name: "c", BudgetPerPerson: "15.5"},
	})

	got := domain.DeriveBudget(&manual, stops)
	require.NotNil(t, got)
	assert.InDelta(t, 25.5, *got, 0.0001, "stop total overrides the manual budget")

	assert.Equal(t, &manual, domain.DeriveBudget(&manual, nil), "no stops keeps the manual budget")
	assert.Nil(t, domain.DeriveBudget(nil, nil))

	zero := domain.DeriveBudget(&manual, domain.BuildStops(uuid.New(), []domain.StopInput{{Name: "free"}}))
	require.NotNil(t, zero)
	assert.Zero(t, *zero)
}

func TestCheckStopsComplete(t *testing.T) {
	assert.NoError(t, domain.CheckStopsComplete(nil))
	assert.NoError(t, domain.CheckStopsComplete([]domain.Stop{completeStop("ok")}))

	err := domain.CheckStopsComplete([]domain.Stop{{Name: "bare"}})
	var inc *domain.IncompleteStopsError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, []string{"place", "time"}, inc.Stops[0].Fields)
	assert.Contains(t, err.Error(), "stop 1 missing place, time")
}
