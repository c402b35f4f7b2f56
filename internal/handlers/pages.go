// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"dalley/internal/app"
	"dalley/internal/middleware"
	"dalley/internal/view"
)

// Pages serves the SPA shell for every browser-facing path.
type Pages struct {
	shell *template.Template
}

// NewPages parses the shell template from fsys.
func NewPages(fsys fs.FS) (*Pages, error) {
	shell, err := template.ParseFS(fsys, "static/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse shell template: %w", err)
	}
	return &Pages{shell: shell}, nil
}

type shellData struct {
	Title string
	CSRF  string
	State app.Snapshot
}

// Shell renders the page shell with the client's state embedded. A page
// load acts like a browser reload: history restarts at the requested path
// and the listing is fetched again. Unknown paths answer 404 with the
// not-found view.
func (p *Pages) Shell(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}

	st := c.Router.Load(r.URL.RequestURI())
	if err := c.Refresh(r.Context()); err != nil {
		slog.Warn("refresh on page load", "client", c.ID, "error", err)
	}

	status := http.StatusOK
	title := "Dalley"
	if st.View == view.NotFound {
		status = http.StatusNotFound
		title = "Page not found · Dalley"
	}

	var buf bytes.Buffer
	data := shellData{Title: title, CSRF: middleware.CSRFToken(r.Context()), State: c.Snapshot()}
	if err := p.shell.Execute(&buf, data); err != nil {
		slog.Error("render shell", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
