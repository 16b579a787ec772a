package handler

import (
	"log/slog"
	"net/http"

	"github.com/pkordes/trip-planner/api"
)

// GetOpenAPI handles GET /openapi.yaml by serving the embedded API document.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(api.OpenAPI); err != nil {
		slog.WarnContext(r.Context(), "failed to write openapi document", "error", err)
	}
}
