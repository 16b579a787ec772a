package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxStops is the most stops a trip can carry. Inputs past this index are ignored.
const MaxStops = 3

// Stop is a single planned meal or activity within a trip.
// Position is the display order; stops are always read back sorted by it.
type Stop struct {
	ID              uuid.UUID
	TripID          uuid.UUID
	Name            string
	Place           string
	Time            *TimeOfDay
	BudgetPerPerson *float64
	Notes           string
	Type            string
	Position        int
	CreatedAt       time.Time
}

// StopInput is one stop as submitted by a client, before any parsing.
// Time and BudgetPerPerson are raw strings because bad values are nulled,
// not rejected.
type StopInput struct {
	Name            string
	Place           string
	Time            string
	BudgetPerPerson string
	Notes           string
	Type            string
	Position        *int
}

// StopTypes are the accepted stop type tags.
var StopTypes = []string{"Breakfast", "Brunch", "Lunch", "Dinner", "Activity"}

// TimeOfDay is a wall-clock time without a date, held as the offset from midnight.
type TimeOfDay time.Duration

var timeLayouts = []string{"15:04:05", "15:04"}

// ParseTimeOfDay accepts "HH:MM:SS" first and falls back to "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			d := time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second
			return TimeOfDay(d), nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("%w: invalid time %q: %v", ErrValidation, s, lastErr)
}

// String formats t as "HH:MM:SS".
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	sec := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// BuildStops turns submitted inputs into the authoritative stop set for a trip.
// Only the first MaxStops inputs are considered; inputs with a blank name are
// dropped; an unparseable time or budget becomes nil; an unknown type becomes "".
// Position defaults to the input's index in the submitted list.
func BuildStops(tripID uuid.UUID, inputs []StopInput) []Stop {
	if len(inputs) > MaxStops {
		inputs = inputs[:MaxStops]
	}
	stops := make([]Stop, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		s := Stop{
			TripID:   tripID,
			Name:     name,
			Place:    strings.TrimSpace(in.Place),
			Notes:    in.Notes,
			Type:     normalizeStopType(in.Type),
			Position: i,
		}
		if in.Position != nil {
			s.Position = *in.Position
		}
		if in.Time != "" {
			if t, err := ParseTimeOfDay(in.Time); err == nil {
				s.Time = &t
			}
		}
		s.BudgetPerPerson = parseBudget(in.BudgetPerPerson)
		stops = append(stops, s)
	}
	return stops
}

// StopBudgetTotal sums the per-person budgets, counting nil as zero.
func StopBudgetTotal(stops []Stop) float64 {
	var total float64
	for _, s := range stops {
		if s.BudgetPerPerson != nil {
			total += *s.BudgetPerPerson
		}
	}
	return total
}

// DeriveBudget returns the trip budget after a stop replacement: the stop
// total when any stop exists, otherwise the manually entered value.
func DeriveBudget(manual *float64, stops []Stop) *float64 {
	if len(stops) == 0 {
		return manual
	}
	total := StopBudgetTotal(stops)
	return &total
}

// CheckStopsComplete returns an *IncompleteStopsError listing every stop that
// lacks a name, place or time.
func CheckStopsComplete(stops []Stop) error {
	var missing []MissingStopFields
	for _, s := range stops {
		var fields []string
		if strings.TrimSpace(s.Name) == "" {
			fields = append(fields, "name")
		}
		if strings.TrimSpace(s.Place) == "" {
			fields = append(fields, "place")
		}
		if s.Time == nil {
			fields = append(fields, "time")
		}
		if len(fields) > 0 {
			missing = append(missing, MissingStopFields{
				StopID:   s.ID,
				Position: s.Position,
				Name:     s.Name,
				Fields:   fields,
			})
		}
	}
	if len(missing) > 0 {
		return &IncompleteStopsError{Stops: missing}
	}
	return nil
}

func parseBudget(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func normalizeStopType(s string) string {
	s = strings.TrimSpace(s)
	for _, t := range StopTypes {
		if strings.EqualFold(t, s) {
			return t
		}
	}
	return ""
}
