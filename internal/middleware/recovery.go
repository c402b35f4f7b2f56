// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
)

var recoveryPage = template.Must(template.New("recovery").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Something went wrong · Dalley</title>
</head>
<body>
<main class="recovery">
<h1>Something went wrong</h1>
<p>The page hit an unexpected error. Reloading usually fixes it.</p>
<form method="get" action="{{.}}"><button type="submit">Reload page</button></form>
</main>
</body>
</html>
`))

// Recoverer catches panics in downstream handlers, logs the stack trace
// and answers 500 instead of crashing the server. API requests get a JSON
// error; page requests get a recovery screen with a reload action.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"error", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "Something went wrong"})
				return
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			if err := recoveryPage.Execute(w, r.URL.Path); err != nil {
				slog.Error("render recovery page", "error", err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
