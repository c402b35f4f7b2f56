// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"dalley/internal/app"
	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/tokenstore"
	"dalley/internal/view"
)

func TestStateIssuesClientCookie(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	rr := b.do(http.MethodGet, "/api/state", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if _, ok := b.cookies[tokenstore.CookieName]; !ok {
		t.Fatal("client cookie not issued")
	}

	snap := decodeSnapshot(t, rr)
	if snap.View.View != view.Home {
		t.Errorf("view = %q, want home", snap.View.View)
	}
	if len(snap.Templates) != 2 {
		t.Errorf("templates = %d, want 2", len(snap.Templates))
	}
	if snap.Session != nil {
		t.Error("fresh client should be signed out")
	}
}

func TestNavigateAndHistory(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.do(http.MethodGet, "/api/state", nil)

	rr := b.do(http.MethodPost, "/api/navigate", map[string]any{"view": "templates", "template_id": env.tmpl.ID})
	if rr.Code != http.StatusOK {
		t.Fatalf("navigate: %d %s", rr.Code, rr.Body.String())
	}
	snap := decodeSnapshot(t, rr)
	if snap.Selected == nil || snap.Selected.ID != env.tmpl.ID {
		t.Fatalf("selected = %+v, want %s", snap.Selected, env.tmpl.ID)
	}
	if snap.Modal != app.ModalTemplate {
		t.Errorf("modal = %q, want template", snap.Modal)
	}
	if want := "/templates?template=" + env.tmpl.ID.String(); snap.Path != want {
		t.Errorf("path = %q, want %q", snap.Path, want)
	}

	snap = decodeSnapshot(t, b.do(http.MethodPost, "/api/history/back", nil))
	if snap.View.View != view.Home || snap.Selected != nil {
		t.Errorf("after back: view %q selected %v", snap.View.View, snap.Selected)
	}
	if !snap.CanGoForward {
		t.Error("expected forward history")
	}

	snap = decodeSnapshot(t, b.do(http.MethodPost, "/api/history/forward", nil))
	if snap.View.View != view.Templates || snap.Selected == nil {
		t.Errorf("after forward: view %q selected %v", snap.View.View, snap.Selected)
	}

	if rr := b.do(http.MethodPost, "/api/navigate", map[string]string{"view": "admin"}); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown view: got %d, want 400", rr.Code)
	}
}

func TestCommands(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"open auth", map[string]string{"type": "open_auth"}, http.StatusOK},
		{"unknown", map[string]string{"type": "explode"}, http.StatusBadRequest},
		{"bad id", map[string]string{"type": "open_template", "id": "nope"}, http.StatusBadRequest},
		{"upload signed out", map[string]string{"type": "open_upload"}, http.StatusUnauthorized},
		{"missing template", map[string]string{"type": "open_template", "id": "00000000-0000-0000-0000-000000000001"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := b.do(http.MethodPost, "/api/commands", tt.body); rr.Code != tt.want {
				t.Errorf("got %d, want %d: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	snap := decodeSnapshot(t, b.do(http.MethodGet, "/api/state", nil))
	found := false
	for _, ts := range snap.Toasts {
		if ts.Message == "You must be signed in to upload" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the upload toast, got %+v", snap.Toasts)
	}
}

func TestDismissToast(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.do(http.MethodPost, "/api/commands", map[string]string{"type": "open_upload"})

	snap := decodeSnapshot(t, b.do(http.MethodGet, "/api/state", nil))
	if len(snap.Toasts) == 0 {
		t.Fatal("expected a toast")
	}
	id := snap.Toasts[0].ID

	if rr := b.do(http.MethodDelete, "/api/toasts/"+id.String(), nil); rr.Code != http.StatusNoContent {
		t.Fatalf("dismiss: got %d, want 204", rr.Code)
	}
	snap = decodeSnapshot(t, b.do(http.MethodGet, "/api/state", nil))
	for _, ts := range snap.Toasts {
		if ts.ID == id {
			t.Error("toast still listed after dismiss")
		}
	}

	if rr := b.do(http.MethodDelete, "/api/toasts/not-a-uuid", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rr.Code)
	}
}

func TestShell(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	rr := b.do(http.MethodGet, "/templates?template="+env.tmpl.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `id="dalley-state"`) {
		t.Error("shell lacks the embedded state")
	}
	if !strings.Contains(body, env.tmpl.ID.String()) {
		t.Error("embedded state should carry the deep-linked template")
	}

	rr = b.do(http.MethodGet, "/does-not-exist", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown path: got %d, want 404", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Page not found") {
		t.Error("expected the not-found title")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Invalid("title", "Title is required"), http.StatusUnprocessableEntity},
		{apperr.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("sign in: %w", apperr.ErrInvalidCredentials), http.StatusUnauthorized},
		{apperr.ErrForbidden, http.StatusForbidden},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrUsernameTaken, http.StatusConflict},
		{apperr.ErrBusy, http.StatusConflict},
		{backend.Rejected(http.StatusUnprocessableEntity, "User already registered"), http.StatusUnprocessableEntity},
		{backend.Rejected(http.StatusInternalServerError, "boom"), http.StatusBadGateway},
		{&apperr.NetworkError{Op: "list templates", Err: errors.New("dial tcp")}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
