// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"dalley/internal/app"
	"dalley/internal/tokenstore"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	clientKey contextKey = "client"
	csrfKey   contextKey = "csrf"
)

// LoadClient attaches the browser's coordinator to the request context,
// issuing a client cookie on the first visit. Cookies that fail signature
// checks are replaced, so coordinators exist only for ids this server
// issued. A new coordinator starts on the requested page path; API
// requests start it at the home view.
func LoadClient(hub *app.Hub, cookies *tokenstore.Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := cookies.ClientID(r)
			if !ok {
				var err error
				if id, err = cookies.Issue(w); err != nil {
					slog.Error("issue client cookie", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}

			path := "/"
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				path = r.URL.RequestURI()
			}
			if rw, ok := w.(*responseWriter); ok {
				rw.client = id
			}
			c := hub.Client(r.Context(), id, path)

			ctx := context.WithValue(r.Context(), clientKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFromCtx returns the coordinator loaded by LoadClient, or nil.
func ClientFromCtx(ctx context.Context) *app.Client {
	c, _ := ctx.Value(clientKey).(*app.Client)
	return c
}

// WithClient returns ctx carrying c. Used by tests and by handlers that
// build requests internally.
func WithClient(ctx context.Context, c *app.Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// RequireSession answers 401 when the coordinator has no signed-in
// session. Must be applied after LoadClient.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ClientFromCtx(r.Context())
		if c == nil || !c.Sessions.Current().SignedIn() {
			writeError(w, http.StatusUnauthorized, "You must be signed in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin answers 403 unless the signed-in identity is the
// administrator. Must be applied after RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ClientFromCtx(r.Context())
		if c == nil || !c.Authors.IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
