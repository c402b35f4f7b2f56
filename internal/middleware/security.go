// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// SecureHeaders adds security-related HTTP headers to every response. The
// content security policy allows images and downloads from the given
// storage origins in addition to the site itself.
func SecureHeaders(storageOrigins ...string) func(http.Handler) http.Handler {
	media := strings.TrimSpace("'self' data: " + strings.Join(storageOrigins, " "))
	csp := strings.Join([]string{
		"default-src 'self'",
		"img-src " + media,
		"connect-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"frame-ancestors 'self'",
		"form-action 'self'",
		"base-uri 'self'",
	}, "; ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			next.ServeHTTP(w, r)
		})
	}
}
