// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the Dalley HTTP surface: a JSON API over the
// browser's coordinator and the page shell the SPA boots from. Handlers
// expect middleware.LoadClient to have run.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dalley/internal/app"
	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/errmsg"
	"dalley/internal/middleware"
	"dalley/internal/upload"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

// API groups the JSON handlers.
type API struct {
	// maxUpload bounds the multipart body of a template upload.
	maxUpload int64
}

// NewAPI creates the API handler group.
func NewAPI() *API {
	return &API{maxUpload: upload.MaxImageSize + upload.MaxFileSize + 1<<20}
}

// client returns the request's coordinator. LoadClient guarantees one, so
// a missing client is a wiring bug and answers 500.
func client(w http.ResponseWriter, r *http.Request) (*app.Client, bool) {
	c := middleware.ClientFromCtx(r.Context())
	if c == nil {
		slog.Error("no client in request context", "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return nil, false
	}
	return c, true
}

// decode reads a bounded JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// idParam parses the {id} route parameter.
func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// statusFor maps an operation failure to its HTTP status.
func statusFor(err error) int {
	var be *backend.Error
	switch {
	case apperr.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrUnauthenticated), errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUsernameTaken), errors.Is(err, apperr.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &be) && be.Status >= 400 && be.Status < 500:
		return be.Status
	default:
		return http.StatusBadGateway
	}
}

// failureBody is the JSON shape of every error response.
type failureBody struct {
	Error  string              `json:"error"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

// writeFailure answers with the status and message for err. Validation
// failures also list every invalid field. Transport failures get fallback
// so internal causes stay in the log.
func writeFailure(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	body := failureBody{Error: fallback}

	var v *apperr.ValidationError
	var be *backend.Error
	switch {
	case errors.As(err, &v):
		body.Error = v.Error()
		body.Fields = v.Fields
	case errors.As(err, &be):
		body.Error = errmsg.From(be, fallback)
	case status != http.StatusBadGateway:
		body.Error = errmsg.From(err, fallback)
	}
	if status >= http.StatusInternalServerError {
		slog.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, failureBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("write json response", "error", err)
	}
}

// writeState answers with the client's full snapshot.
func writeState(w http.ResponseWriter, c *app.Client, status int) {
	writeJSON(w, status, c.Snapshot())
}
