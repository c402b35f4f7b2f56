// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"dalley/internal/profile"
)

// SaveProfile writes the signed-in user's profile.
func (a *API) SaveProfile(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	var in profile.Input
	if !decode(w, r, &in) {
		return
	}
	if err := c.Profile.Save(r.Context(), in); err != nil {
		writeFailure(w, err, "Failed to update profile")
		return
	}
	writeState(w, c, http.StatusOK)
}

// Author returns an author card: profile, listing stats and whether the
// caller may moderate it.
func (a *API) Author(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	card, err := c.Authors.Author(r.Context(), id)
	if err != nil {
		writeFailure(w, err, "Failed to load author")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Verify toggles an author's verified badge. Administrator only.
func (a *API) Verify(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := c.Authors.ToggleVerified(r.Context(), id)
	if err != nil {
		writeFailure(w, err, "Failed to update verification")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Ban toggles an author's banned flag. Administrator only.
func (a *API) Ban(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := c.Authors.ToggleBanned(r.Context(), id)
	if err != nil {
		writeFailure(w, err, "Failed to update ban status")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
