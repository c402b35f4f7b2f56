// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Dalley server. Static assets and the health probe sit outside the
// client chain; the API and page shell get CSRF protection and a
// per-browser coordinator.
package router

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"dalley/internal/app"
	"dalley/internal/handlers"
	"dalley/internal/middleware"
	"dalley/internal/tokenstore"
)

// healthTimeout bounds each dependency check of the health probe.
const healthTimeout = 2 * time.Second

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Options carries everything the route table needs.
type Options struct {
	Hub    *app.Hub
	API    *handlers.API
	Pages  *handlers.Pages
	Static fs.FS

	// Cookies signs and verifies the client cookie.
	Cookies *tokenstore.Cookies
	// Secure marks cookies Secure (production).
	Secure bool
	// StorageOrigins are allowed as image sources in the CSP.
	StorageOrigins []string

	// AuthLimiter guards sign-in and sign-up; WriteLimiter guards uploads
	// and brief generation. Either may be nil.
	AuthLimiter  *middleware.RateLimiter
	WriteLimiter *middleware.RateLimiter

	// Checks are run by /health, keyed by dependency name.
	Checks map[string]Check
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(opts.StorageOrigins...))

	// Health check and assets: no client, no CSRF.
	r.Get("/health", healthHandler(opts.Checks))
	if opts.Static != nil {
		r.Handle("/static/*", http.FileServer(http.FS(opts.Static)))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(opts.Secure))
		r.Use(middleware.LoadClient(opts.Hub, opts.Cookies))

		api := opts.API
		r.Route("/api", func(r chi.Router) {
			r.Get("/state", api.State)
			r.Post("/navigate", api.Navigate)
			r.Post("/history/back", api.Back)
			r.Post("/history/forward", api.Forward)
			r.Post("/commands", api.Command)
			r.Delete("/toasts/{id}", api.DismissToast)

			// Auth, rate limited per browser.
			r.Group(func(r chi.Router) {
				limit(r, opts.AuthLimiter)
				r.Post("/auth/signin", api.SignIn)
				r.Post("/auth/signup", api.SignUp)
			})
			r.Post("/auth/signout", api.SignOut)

			// Marketplace reads.
			r.Get("/templates", api.ListTemplates)
			r.Post("/templates/{id}/download", api.Download)
			r.Get("/authors/{id}", api.Author)

			r.Group(func(r chi.Router) {
				limit(r, opts.WriteLimiter)
				r.Post("/brief", api.Brief)
			})

			// Signed-in only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession)

				r.Group(func(r chi.Router) {
					limit(r, opts.WriteLimiter)
					r.Post("/templates", api.CreateTemplate)
				})
				r.Patch("/templates/{id}", api.UpdateTemplate)
				r.Delete("/templates/{id}", api.DeleteTemplate)
				r.Put("/profile", api.SaveProfile)

				// Moderation, administrator only.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/authors/{id}/verify", api.Verify)
					r.Post("/authors/{id}/ban", api.Ban)
				})
			})

			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"Not found"}`))
			})
		})

		// Every other path is a view of the SPA.
		r.Get("/*", opts.Pages.Shell)
	})

	return r
}

func limit(r chi.Router, rl *middleware.RateLimiter) {
	if rl != nil {
		r.Use(rl.Middleware)
	}
}

type healthBody struct {
	Status  string   `json:"status"`
	Failing []string `json:"failing,omitempty"`
}

// healthHandler reports ok when every check passes and 503 with the
// failing dependencies otherwise.
func healthHandler(checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		body := healthBody{Status: "ok"}
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			err := checks[name](ctx)
			cancel()
			if err != nil {
				slog.Warn("health check failed", "dependency", name, "error", err)
				body.Failing = append(body.Failing, name)
			}
		}

		status := http.StatusOK
		if len(body.Failing) > 0 {
			body.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}
