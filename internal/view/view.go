// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package view is the single source of truth for which top-level screen a
// client is looking at. It keeps the current ViewState in step with the
// address bar path and an in-memory history stack.
package view

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// View is a top-level screen.
type View string

const (
	Home      View = "home"
	Templates View = "templates"
	Editor    View = "editor"
	NotFound  View = "not-found"
)

// NotFoundPath is pushed when navigating to the not-found view.
const NotFoundPath = "/404"

var paths = map[View]string{
	Home:      "/",
	Templates: "/templates",
	Editor:    "/editor",
	NotFound:  NotFoundPath,
}

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	_, ok := paths[v]
	return ok
}

// Params is the optional sub-selection of a navigation.
type Params struct {
	TemplateID *uuid.UUID
	AuthorID   *uuid.UUID
}

// State is a client's ViewState.
type State struct {
	View       View       `json:"view"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	AuthorID   *uuid.UUID `json:"author_id,omitempty"`
}

// Path renders the state as an address bar path. Sub-selection is only
// encoded on the templates view.
func (s State) Path() string {
	p, ok := paths[s.View]
	if !ok {
		return NotFoundPath
	}
	if s.View != Templates {
		return p
	}
	q := url.Values{}
	if s.TemplateID != nil {
		q.Set("template", s.TemplateID.String())
	}
	if s.AuthorID != nil {
		q.Set("author", s.AuthorID.String())
	}
	if len(q) == 0 {
		return p
	}
	return p + "?" + q.Encode()
}

func (s State) equal(o State) bool {
	return s.View == o.View && sameID(s.TemplateID, o.TemplateID) && sameID(s.AuthorID, o.AuthorID)
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Parse maps an address bar path (optionally with a query) to a State.
// Unrecognised paths resolve to the not-found view. Malformed sub-selection
// ids are ignored.
func Parse(raw string) State {
	u, err := url.Parse(raw)
	if err != nil {
		return State{View: NotFound}
	}

	p := u.Path
	if p == "" {
		p = "/"
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}

	var st State
	switch p {
	case "/":
		st.View = Home
	case "/templates":
		st.View = Templates
	case "/editor":
		st.View = Editor
	default:
		return State{View: NotFound}
	}

	if st.View == Templates {
		q := u.Query()
		st.TemplateID = parseID(q.Get("template"))
		st.AuthorID = parseID(q.Get("author"))
	}
	return st
}

func parseID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// ParseView converts a view tag from a request body.
func ParseView(s string) (View, error) {
	v := View(s)
	if !v.Valid() {
		return "", fmt.Errorf("unknown view %q", s)
	}
	return v, nil
}
