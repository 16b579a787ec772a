package domain

// ItineraryRow is a single row in a trip's itinerary export.
// It is a flat, denormalized view: one row per stop, with trip fields repeated
// for every stop. A trip with no stops yields one row with empty stop fields.
type ItineraryRow struct {
	// Trip fields, repeated for every stop on the trip.
	TripID     string
	TripTitle  string
	TripStatus Status
	TripDate   string // "2006-01-02", or "start..end" for a range, empty when unset
	TripBudget string // empty when unset

	// Stop fields, zero values when the trip has no stops.
	StopPosition    int
	StopName        string
	StopPlace       string
	StopTime        string
	StopType        string
	BudgetPerPerson string
	StopNotes       string
}
