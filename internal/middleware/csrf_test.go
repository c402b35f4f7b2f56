// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRFIssuesCookie(t *testing.T) {
	for _, secure := range []bool{true, false} {
		var seen string
		handler := CSRF(secure)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = CSRFToken(r.Context())
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		var cookie *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == CSRFCookieName {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("CSRF cookie not set")
		}
		if cookie.Secure != secure || cookie.SameSite != http.SameSiteStrictMode || cookie.HttpOnly {
			t.Errorf("cookie flags: %+v", cookie)
		}
		if seen == "" || seen != cookie.Value {
			t.Errorf("context token %q != cookie %q", seen, cookie.Value)
		}
	}
}

func TestCSRFRejectsMutationWithoutToken(t *testing.T) {
	handler := CSRF(false)(okHandler())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/commands", nil)
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "token-value"})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("%s without header: got %d, want 403", method, rr.Code)
		}
	}
}

func TestCSRFAcceptsMatchingHeader(t *testing.T) {
	handler := CSRF(false)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/commands", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "token-value"})
	req.Header.Set(CSRFHeaderName, "token-value")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("matching token: got %d, want 200", rr.Code)
	}
}

func TestCSRFRejectsMismatchedHeader(t *testing.T) {
	handler := CSRF(false)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/commands", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "token-value"})
	req.Header.Set(CSRFHeaderName, "other-value")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("mismatched token: got %d, want 403", rr.Code)
	}
}

func TestCSRFAllowsSafeMethods(t *testing.T) {
	handler := CSRF(false)(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(method, "/api/state", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", method, rr.Code)
		}
	}
}
