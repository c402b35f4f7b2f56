// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// SignIn authenticates with email and password.
func (a *API) SignIn(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	if err := c.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeFailure(w, err, "Authentication failed")
		return
	}
	writeState(w, c, http.StatusOK)
}

// SignUp registers an account and signs it in.
func (a *API) SignUp(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	if err := c.SignUp(r.Context(), req.Email, req.Password, req.Username); err != nil {
		writeFailure(w, err, "Authentication failed")
		return
	}
	writeState(w, c, http.StatusCreated)
}

// SignOut ends the session. The local session is cleared even when the
// backend call fails, so the response is always the signed-out state.
func (a *API) SignOut(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	if err := c.SignOut(r.Context()); err != nil {
		slog.Warn("sign out", "client", c.ID, "error", err)
	}
	writeState(w, c, http.StatusOK)
}
