// Package router sets up all HTTP routes and middleware chains for the
// inkpress API. Routes are grouped by resource; each group declares the
// permission gate it needs.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkpress/internal/handlers"
	"inkpress/internal/identity"
	"inkpress/internal/middleware"
)

// Deps holds everything the router wires together.
type Deps struct {
	Identity identity.Provider
	Users    middleware.UserLookup

	// APILimiter applies to every /api request, keyed by client IP.
	// ComicLimiter applies to comic generation, keyed by user. Either may
	// be nil to disable that limit.
	APILimiter   middleware.Limiter
	ComicLimiter middleware.Limiter

	Posts         *handlers.Posts
	Taxonomy      *handlers.Taxonomy
	AIGenerations *handlers.AIGenerations
	AdminUsers    *handlers.AdminUsers
	AuthSync      *handlers.AuthSync
	Comics        *handlers.Comics
	Upload        *handlers.Upload
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request. Authenticate runs before
	// Logger so request logs carry the user id.
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Authenticate(d.Identity, d.Users))
	r.Use(middleware.Logger)
	r.Use(middleware.SameOrigin)

	// Health check, no auth.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if d.APILimiter != nil {
			r.Use(middleware.RateLimit(d.APILimiter, middleware.ByClientIP))
		}

		// Posts: reads are public, writes need publish rights.
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", d.Posts.List)
			r.Get("/{id}", d.Posts.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePublisher)
				r.Post("/", d.Posts.Create)
				r.Patch("/{id}", d.Posts.Update)
				r.Post("/{id}/publish", d.Posts.TogglePublish)
				r.Delete("/{id}", d.Posts.Delete)
			})
		})

		r.Get("/tags", d.Taxonomy.Tags)
		r.Get("/categories", d.Taxonomy.Categories)

		// AI generation showcase: reads are public, writes are admin only.
		r.Route("/ai-generations", func(r chi.Router) {
			r.Get("/", d.AIGenerations.List)
			r.Get("/{id}", d.AIGenerations.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", d.AIGenerations.Create)
				r.Put("/{id}", d.AIGenerations.Update)
				r.Delete("/{id}", d.AIGenerations.Delete)
			})
		})

		// User management, admin only.
		r.Route("/admin/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", d.AdminUsers.List)
			r.Patch("/", d.AdminUsers.Update)
			r.Delete("/", d.AdminUsers.Delete)
		})

		// Auth sync needs a provider identity but not yet a local user.
		r.Route("/auth/sync", func(r chi.Router) {
			r.Use(middleware.RequireIdentity)
			r.Post("/", d.AuthSync.Sync)
			r.Get("/", d.AuthSync.Me)
			r.Patch("/", d.AuthSync.UpdateProfile)
		})

		r.Route("/comic/generate", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", d.Comics.List)
			r.Group(func(r chi.Router) {
				if d.ComicLimiter != nil {
					r.Use(middleware.RateLimit(d.ComicLimiter, middleware.ByUser))
				}
				r.Post("/", d.Comics.Generate)
			})
		})

		r.With(middleware.RequirePublisher).Post("/upload", d.Upload.Create)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
