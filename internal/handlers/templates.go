// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"dalley/internal/marketplace"
	"dalley/internal/models"
	"dalley/internal/upload"
)

type listResponse struct {
	Templates []models.Template    `json:"templates"`
	Filter    marketplace.Criteria `json:"filter"`
}

// ListTemplates applies the category and search filter from the query and
// returns the filtered listing. The filter sticks to the client.
func (a *API) ListTemplates(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	crit := c.Market.Snapshot().Criteria
	if q.Has("category") {
		crit.Category = q.Get("category")
	}
	if q.Has("q") {
		crit.Search = q.Get("q")
	}
	if err := c.Market.ApplyFilter(crit); err != nil {
		writeFailure(w, err, "Invalid filter")
		return
	}
	st := c.Market.Snapshot()
	writeJSON(w, http.StatusOK, listResponse{Templates: st.Filtered, Filter: st.Criteria})
}

// CreateTemplate handles the multipart upload form: title, description,
// category, image and file.
func (a *API) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := upload.Request{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	var err error
	if req.Image, err = formAsset(r, "image"); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read preview image")
		return
	}
	if req.File, err = formAsset(r, "file"); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read template file")
		return
	}

	row, err := c.Upload.Submit(r.Context(), req)
	if err != nil {
		writeFailure(w, err, "Upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// formAsset reads one multipart file. A missing field yields an empty
// asset, which validation reports per field.
func formAsset(r *http.Request, field string) (upload.Asset, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return upload.Asset{}, nil
	}
	if err != nil {
		return upload.Asset{}, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()
	return readAsset(f, header)
}

func readAsset(f multipart.File, header *multipart.FileHeader) (upload.Asset, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return upload.Asset{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return upload.Asset{Name: header.Filename, Data: data}, nil
}

// UpdateTemplate edits a template's title and description.
func (a *API) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var patch models.TemplatePatch
	if !decode(w, r, &patch) {
		return
	}
	if err := c.Market.UpdateTemplate(r.Context(), id, patch); err != nil {
		writeFailure(w, err, "Failed to update template")
		return
	}
	writeState(w, c, http.StatusOK)
}

// DeleteTemplate removes a template.
func (a *API) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := c.Market.DeleteTemplate(r.Context(), id); err != nil {
		writeFailure(w, err, "Failed to delete template")
		return
	}
	writeState(w, c, http.StatusOK)
}

// Download records a download and redirects to the template file.
func (a *API) Download(w http.ResponseWriter, r *http.Request) {
	c, ok := client(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ref, found := c.Market.IncrementDownload(r.Context(), id)
	if !found {
		writeError(w, http.StatusNotFound, "Template not found")
		return
	}
	if ref == "" {
		slog.Warn("template has no file reference", "template_id", id)
		writeError(w, http.StatusNotFound, "Template file not found")
		return
	}
	http.Redirect(w, r, ref, http.StatusSeeOther)
}
