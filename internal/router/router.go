// Package router sets up the HTTP routes and middleware chain for the
// theme-submission API. Every /themes route sits behind the static bearer
// token; the health check is open.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"themedrop/internal/handlers"
	"themedrop/internal/middleware"
)

// uploadRateLimit allows this many uploads per client IP per window.
const (
	uploadRateLimit  = 10
	uploadRateWindow = 1 * time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and routes wired up. The returned stop function terminates the upload
// rate limiter's background cleanup.
func New(api *handlers.API, apiSecret string) (chi.Router, func()) {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check — no auth.
	r.Get("/health", healthHandler)

	uploadLimiter := middleware.NewRateLimiter(uploadRateLimit, uploadRateWindow)

	r.Route("/themes", func(r chi.Router) {
		r.Use(middleware.RequireBearer(apiSecret))

		r.With(uploadLimiter.Middleware).Post("/upload", api.Upload)

		r.Get("/", api.List)
		// Registered before /{id} so "status" is never read as a file_id.
		r.Get("/status/{id}", api.Status)
		r.Get("/{id}", api.Get)
		r.Delete("/{id}", api.Delete)
		r.Put("/{id}", api.Update)
	})

	return r, uploadLimiter.Stop
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
