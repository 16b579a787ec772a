package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Missing is set only for incomplete_stops.
	Missing []MissingStop `json:"missing,omitempty"`
}

// ErrorResponse wraps ErrorDetail: {"error":{"code":"...","message":"..."}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MissingStop names the required fields one stop lacks before finalizing.
type MissingStop struct {
	StopID   uuid.UUID `json:"stop_id"`
	Position int       `json:"position"`
	Name     string    `json:"name"`
	Fields   []string  `json:"fields"`
}

// errorMapping ties a sentinel to its status and code. Order matters:
// the first match wins.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrInvalidTransition, http.StatusConflict, "conflict"},
	{domain.ErrTripClosed, http.StatusConflict, "conflict"},
	{domain.ErrSoleEditor, http.StatusConflict, "conflict"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
}

// writeServiceError maps a service error to its HTTP response.
// Unrecognised errors are logged and returned as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var incomplete *domain.IncompleteStopsError
	if errors.As(err, &incomplete) {
		missing := make([]MissingStop, len(incomplete.Stops))
		for i, s := range incomplete.Stops {
			missing[i] = MissingStop{StopID: s.StopID, Position: s.Position, Name: s.Name, Fields: s.Fields}
		}
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorDetail{
			Code:    "incomplete_stops",
			Message: "every stop needs a name, place and time before the trip can be finalized",
			Missing: missing,
		}})
		return
	}

	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			writeJSON(w, m.status, ErrorResponse{Error: ErrorDetail{Code: m.code, Message: unwrapMessage(err, m.target)}})
			return
		}
	}

	slog.ErrorContext(r.Context(), "unhandled error", "error", err, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}})
}

// writeRequestError rejects a request before it reaches the service layer,
// e.g. a missing or malformed body.
func writeRequestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}})
}

// unwrapMessage extracts the human-readable part that follows the sentinel.
// e.g. "service.TripService.Create: validation error: title is required" → "title is required"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 && len(msg) > i+len(marker) {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
