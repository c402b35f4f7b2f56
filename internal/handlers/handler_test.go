// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure: an in-memory
// backend behind the same route table the server uses, and a browser that
// keeps its cookies between requests.
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dalley/internal/app"
	"dalley/internal/backend/memory"
	"dalley/internal/middleware"
	"dalley/internal/models"
	"dalley/internal/tokenstore"
	"dalley/web"
)

type testEnv struct {
	mem     *memory.Backend
	mux     http.Handler
	alice   uuid.UUID
	admin   uuid.UUID
	tmpl    models.Template
	foreign models.Template
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := memory.New()
	alice := mem.AddAccount("alice@example.com", "secret1", "alice")
	bob := mem.AddAccount("bob@example.com", "secret2", "bob")
	admin := mem.AddAccount("admin@example.com", "admin123", "admin")
	for id, name := range map[uuid.UUID]string{alice: "alice", bob: "bob", admin: "admin"} {
		name := name
		mem.AddProfile(models.Profile{ID: id, Username: &name})
	}
	tmpl := mem.AddTemplate(models.Template{
		Title:       "Neon",
		Description: "Glowing layout",
		Category:    "HUD",
		UserID:      alice,
		FileURL:     "https://storage.test/template-files/neon.dy",
	})
	foreign := mem.AddTemplate(models.Template{
		Title:       "Brutal",
		Description: "Raw layout",
		Category:    "HUD",
		UserID:      bob,
		FileURL:     "https://storage.test/template-files/brutal.dy",
	})

	hub := app.NewHub(app.Deps{
		Backend:  mem.Contract(),
		AdminID:  admin,
		ToastTTL: time.Hour,
		Loading:  time.Millisecond,
	}, nil, 0)
	t.Cleanup(hub.Stop)

	pages, err := NewPages(web.StaticFS)
	if err != nil {
		t.Fatalf("NewPages: %v", err)
	}

	return &testEnv{
		mem:     mem,
		mux:     testRoutes(hub, NewAPI(), pages),
		alice:   alice,
		admin:   admin,
		tmpl:    tmpl,
		foreign: foreign,
	}
}

// testRoutes mirrors the production route table without CSRF and rate
// limiting, which have their own tests.
func testRoutes(hub *app.Hub, api *API, pages *Pages) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LoadClient(hub, tokenstore.NewCookies("test-secret", false)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", api.State)
		r.Post("/navigate", api.Navigate)
		r.Post("/history/back", api.Back)
		r.Post("/history/forward", api.Forward)
		r.Post("/commands", api.Command)
		r.Post("/auth/signin", api.SignIn)
		r.Post("/auth/signup", api.SignUp)
		r.Post("/auth/signout", api.SignOut)
		r.Get("/templates", api.ListTemplates)
		r.Post("/templates/{id}/download", api.Download)
		r.Get("/authors/{id}", api.Author)
		r.Delete("/toasts/{id}", api.DismissToast)
		r.Post("/brief", api.Brief)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Post("/templates", api.CreateTemplate)
			r.Patch("/templates/{id}", api.UpdateTemplate)
			r.Delete("/templates/{id}", api.DeleteTemplate)
			r.Put("/profile", api.SaveProfile)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/authors/{id}/verify", api.Verify)
				r.Post("/authors/{id}/ban", api.Ban)
			})
		})
	})
	r.Get("/*", pages.Shell)
	return r
}

// browser replays cookies across requests like a real client.
type browser struct {
	t       *testing.T
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, env: e, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	b.env.mux.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rr
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			b.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return b.send(req)
}

func (b *browser) signIn(email, password string) {
	b.t.Helper()
	rr := b.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": email, "password": password})
	if rr.Code != http.StatusOK {
		b.t.Fatalf("sign in %s: %d %s", email, rr.Code, rr.Body.String())
	}
}

func decodeSnapshot(t *testing.T, rr *httptest.ResponseRecorder) app.Snapshot {
	t.Helper()
	var snap app.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v (%s)", err, rr.Body.String())
	}
	return snap
}

func decodeFailure(t *testing.T, rr *httptest.ResponseRecorder) failureBody {
	t.Helper()
	var body failureBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode failure: %v (%s)", err, rr.Body.String())
	}
	return body
}
