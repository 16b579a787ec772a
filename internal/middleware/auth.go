package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/auth"
)

// TokenParser verifies a bearer token and returns its user id.
// Implemented by *auth.Issuer.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// NewAuthenticator returns a middleware that requires a valid
// "Authorization: Bearer <token>" header. The user id is stored in the request
// context with auth.WithUserID; anonymous or invalid requests get 401.
func NewAuthenticator(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
				return
			}

			userID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}

			setLogUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// writeError writes the API error envelope. It mirrors the handler package
// so middleware rejections look the same to clients.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing useful to do if the client went away
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
