// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	panicky := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	}))

	t.Run("page requests get the recovery screen", func(t *testing.T) {
		captureLogs(t)
		rr := httptest.NewRecorder()
		panicky.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/templates", nil))

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status: got %d, want 500", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("content type: %q", ct)
		}
		body := rr.Body.String()
		if !strings.Contains(body, "Something went wrong") || !strings.Contains(body, "Reload page") {
			t.Errorf("body lacks the recovery screen: %q", body)
		}
		if !strings.Contains(body, `action="/templates"`) {
			t.Errorf("reload should target the current path: %q", body)
		}
	})

	t.Run("api requests get JSON", func(t *testing.T) {
		captureLogs(t)
		rr := httptest.NewRecorder()
		panicky.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/commands", nil))

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status: got %d, want 500", rr.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["error"] == "" {
			t.Error("expected an error message")
		}
	})

	t.Run("passes through without panic", func(t *testing.T) {
		handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
			t.Errorf("got %d %q", rr.Code, rr.Body.String())
		}
	})

	t.Run("logs the panic value", func(t *testing.T) {
		logs := captureLogs(t)
		panicky.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if !strings.Contains(logs.String(), "panic recovered") {
			t.Errorf("log: %s", logs.String())
		}
	})
}
