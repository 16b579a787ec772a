package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/pkordes/trip-planner/internal/domain"
)

// csvHeaders defines the column names written as the first row of the CSV itinerary.
var csvHeaders = []string{
	"trip_id", "trip_title", "trip_status", "trip_date", "trip_budget",
	"stop_position", "stop_name", "stop_place", "stop_time", "stop_type",
	"budget_per_person", "stop_notes",
}

// ItineraryRow is one row of the JSON itinerary.
type ItineraryRow struct {
	TripID          string        `json:"trip_id"`
	TripTitle       string        `json:"trip_title"`
	TripStatus      domain.Status `json:"trip_status"`
	TripDate        string        `json:"trip_date,omitempty"`
	TripBudget      string        `json:"trip_budget,omitempty"`
	StopPosition    int           `json:"stop_position"`
	StopName        string        `json:"stop_name,omitempty"`
	StopPlace       string        `json:"stop_place,omitempty"`
	StopTime        string        `json:"stop_time,omitempty"`
	StopType        string        `json:"stop_type,omitempty"`
	BudgetPerPerson string        `json:"budget_per_person,omitempty"`
	StopNotes       string        `json:"stop_notes,omitempty"`
}

// GetItinerary handles GET /trips/{tripId}/itinerary.
// It returns one row per stop. Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId", "trip")
	if !ok {
		return
	}

	rows, err := s.trips.Itinerary(r.Context(), userID, tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, "itinerary-"+tripID.String()+".csv", rows)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[ItineraryRow]{Data: mapSlice(rows, itineraryToResponse)})
}

// writeCSV encodes rows as CSV with a header line.
func writeCSV(w http.ResponseWriter, filename string, rows []domain.ItineraryRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, row := range rows {
		//nolint:errcheck
		cw.Write(itineraryToRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write(buf.Bytes())
}

func itineraryToResponse(r domain.ItineraryRow) ItineraryRow {
	return ItineraryRow{
		TripID:          r.TripID,
		TripTitle:       r.TripTitle,
		TripStatus:      r.TripStatus,
		TripDate:        r.TripDate,
		TripBudget:      r.TripBudget,
		StopPosition:    r.StopPosition,
		StopName:        r.StopName,
		StopPlace:       r.StopPlace,
		StopTime:        r.StopTime,
		StopType:        r.StopType,
		BudgetPerPerson: r.BudgetPerPerson,
		StopNotes:       r.StopNotes,
	}
}

// itineraryToRecord flattens a row into CSV fields. A row without a stop
// leaves the stop position empty.
func itineraryToRecord(r domain.ItineraryRow) []string {
	position := ""
	if r.StopName != "" {
		position = strconv.Itoa(r.StopPosition)
	}
	return []string{
		r.TripID,
		r.TripTitle,
		string(r.TripStatus),
		r.TripDate,
		r.TripBudget,
		position,
		r.StopName,
		r.StopPlace,
		r.StopTime,
		r.StopType,
		r.BudgetPerPerson,
		r.StopNotes,
	}
}
