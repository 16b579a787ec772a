// Package middleware provides HTTP middleware for the trip planner API server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type logInfoKey struct{}

// logInfo collects request attributes discovered further down the chain,
// such as the authenticated user.
type logInfo struct {
	userID uuid.UUID
}

func setLogUserID(ctx context.Context, id uuid.UUID) {
	if info, ok := ctx.Value(logInfoKey{}).(*logInfo); ok {
		info.userID = id
	}
}

// NewSlogLogger returns a middleware that logs each request as a structured
// JSON line via the provided slog.Logger. It captures method, path, HTTP
// status, duration, the request ID set by chi's RequestID middleware, and the
// user ID when the request was authenticated.
//
// Wire it after chimiddleware.RequestID so the request ID is available.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &logInfo{}
			r = r.WithContext(context.WithValue(r.Context(), logInfoKey{}, info))

			// WrapResponseWriter intercepts WriteHeader so we can read the
			// status code after the downstream handler has run.
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			}
			if info.userID != uuid.Nil {
				attrs = append(attrs, "user_id", info.userID.String())
			}
			log.InfoContext(r.Context(), "request", attrs...)
		})
	}
}
