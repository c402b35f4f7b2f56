// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"dalley/internal/ai"
)

type briefRequest struct {
	Prompt string `json:"prompt"`
}

// Brief turns a free-text project description into a structured brief.
func (a *API) Brief(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	var req briefRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := c.Brief(r.Context(), req.Prompt)
	if err != nil {
		writeFailure(w, err, ai.ErrBriefFailed.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}
