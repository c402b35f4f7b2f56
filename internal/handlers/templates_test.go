// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/models"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type part struct {
	field, name string
	data        []byte
}

func uploadRequest(t *testing.T, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(f.data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/templates", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestListTemplatesFilter(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	rr := b.do(http.MethodGet, "/api/templates?q=neon", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var list listResponse
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Templates) != 1 || list.Templates[0].ID != env.tmpl.ID {
		t.Errorf("filtered = %+v, want only Neon", list.Templates)
	}
	if list.Filter.Search != "neon" {
		t.Errorf("filter = %+v", list.Filter)
	}

	if rr := b.do(http.MethodGet, "/api/templates?category=Spaceships", nil); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown category: got %d, want 422", rr.Code)
	}
}

func TestCreateTemplate(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	fields := map[string]string{"title": "Orbit", "description": "Space layout", "category": "HUD"}
	req := uploadRequest(t, fields,
		part{"image", "orbit.png", pngBytes(t)},
		part{"file", "orbit.dy", []byte("dalley export")},
	)
	if rr := b.send(req); rr.Code != http.StatusUnauthorized {
		t.Fatalf("signed out: got %d, want 401", rr.Code)
	}

	b.signIn("alice@example.com", "secret1")
	req = uploadRequest(t, fields,
		part{"image", "orbit.png", pngBytes(t)},
		part{"file", "orbit.dy", []byte("dalley export")},
	)
	rr := b.send(req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload: got %d: %s", rr.Code, rr.Body.String())
	}
	var row models.Template
	if err := json.NewDecoder(rr.Body).Decode(&row); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if row.Title != "Orbit" || row.UserID != env.alice {
		t.Errorf("row = %+v", row)
	}
	if env.mem.TemplateCount() != 3 {
		t.Errorf("template count = %d, want 3", env.mem.TemplateCount())
	}
	if env.mem.ObjectCount(backend.BucketImages) != 1 || env.mem.ObjectCount(backend.BucketFiles) != 1 {
		t.Error("expected one object per bucket")
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn("alice@example.com", "secret1")

	req := uploadRequest(t, map[string]string{"title": "Orbit", "category": "HUD"},
		part{"file", "orbit.zip", []byte("zip")},
	)
	rr := b.send(req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422: %s", rr.Code, rr.Body.String())
	}

	body := decodeFailure(t, rr)
	v := &apperr.ValidationError{Fields: body.Fields}
	for _, field := range []string{"description", "image", "file"} {
		if !v.Has(field) {
			t.Errorf("expected %s to be reported, got %+v", field, body.Fields)
		}
	}
	if env.mem.ObjectCount(backend.BucketImages) != 0 {
		t.Error("nothing should be uploaded on validation failure")
	}
}

func TestUpdateTemplate(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn("alice@example.com", "secret1")

	rr := b.do(http.MethodPatch, "/api/templates/"+env.tmpl.ID.String(), models.TemplatePatch{Title: "Neon 2", Description: "Brighter"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d: %s", rr.Code, rr.Body.String())
	}
	if got, _ := env.mem.Template(env.tmpl.ID); got.Title != "Neon 2" {
		t.Errorf("stored title = %q", got.Title)
	}

	rr = b.do(http.MethodPatch, "/api/templates/"+env.foreign.ID.String(), models.TemplatePatch{Title: "Mine", Description: "Now"})
	if rr.Code != http.StatusForbidden {
		t.Errorf("foreign template: got %d, want 403", rr.Code)
	}

	rr = b.do(http.MethodPatch, "/api/templates/"+env.tmpl.ID.String(), models.TemplatePatch{Title: " ", Description: "x"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank title: got %d, want 422", rr.Code)
	}

	if rr := b.do(http.MethodPatch, "/api/templates/nope", models.TemplatePatch{}); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rr.Code)
	}
}

func TestDeleteTemplate(t *testing.T) {
	env := newTestEnv(t)

	alice := env.browser(t)
	alice.signIn("alice@example.com", "secret1")
	if rr := alice.do(http.MethodDelete, "/api/templates/"+env.foreign.ID.String(), nil); rr.Code != http.StatusForbidden {
		t.Errorf("non-owner delete: got %d, want 403", rr.Code)
	}

	admin := env.browser(t)
	admin.signIn("admin@example.com", "admin123")
	rr := admin.do(http.MethodDelete, "/api/templates/"+env.foreign.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin delete: got %d: %s", rr.Code, rr.Body.String())
	}
	if _, ok := env.mem.Template(env.foreign.ID); ok {
		t.Error("template should be gone")
	}
	for _, tmpl := range decodeSnapshot(t, rr).Templates {
		if tmpl.ID == env.foreign.ID {
			t.Error("deleted template still listed")
		}
	}
}

func TestDownloadRedirects(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	rr := b.do(http.MethodPost, "/api/templates/"+env.tmpl.ID.String()+"/download", nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != env.tmpl.FileURL {
		t.Errorf("Location = %q, want %q", loc, env.tmpl.FileURL)
	}

	rr = b.do(http.MethodPost, "/api/templates/00000000-0000-0000-0000-000000000001/download", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown template: got %d, want 404", rr.Code)
	}
}
