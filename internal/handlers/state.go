// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dalley/internal/app"
	"dalley/internal/view"
)

// State returns the client's snapshot.
func (a *API) State(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	writeState(w, c, http.StatusOK)
}

type navigateRequest struct {
	View       string     `json:"view"`
	TemplateID *uuid.UUID `json:"template_id"`
	AuthorID   *uuid.UUID `json:"author_id"`
}

// Navigate pushes a view onto the client's history.
func (a *API) Navigate(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := view.ParseView(req.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown view")
		return
	}
	if _, err := c.Navigate(v, view.Params{TemplateID: req.TemplateID, AuthorID: req.AuthorID}); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown view")
		return
	}
	writeState(w, c, http.StatusOK)
}

// Back moves one history entry back. At the oldest entry the state is
// returned unchanged.
func (a *API) Back(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	c.Router.Back()
	writeState(w, c, http.StatusOK)
}

// Forward moves one history entry forward.
func (a *API) Forward(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	c.Router.Forward()
	writeState(w, c, http.StatusOK)
}

type commandRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Command dispatches a cross-region command such as opening a modal.
func (a *API) Command(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	cmd, err := app.ParseCommand(req.Type, req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown command")
		return
	}
	if err := c.Dispatch(r.Context(), cmd); err != nil {
		writeFailure(w, err, "Command failed")
		return
	}
	writeState(w, c, http.StatusOK)
}

// DismissToast removes a toast before its display window ends. Unknown
// ids are ignored.
func (a *API) DismissToast(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	c.Toasts.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}
