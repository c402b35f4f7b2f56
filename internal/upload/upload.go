// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package upload validates and persists new marketplace templates: a
// preview image, a .dy export file and their metadata. The pipeline runs
// strictly in order and does not roll back earlier steps when a later one
// fails.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/errmsg"
	"dalley/internal/imaging"
	"dalley/internal/models"
	"dalley/internal/session"
	"dalley/internal/toast"
)

const (
	// FileExtension is the required suffix of the template export file.
	FileExtension = ".dy"

	// MaxImageSize and MaxFileSize bound each asset.
	MaxImageSize = 10 << 20
	MaxFileSize  = 50 << 20

	// cacheControl is sent with both assets.
	cacheControl = time.Hour

	fileContentType = "application/octet-stream"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeName replaces every character other than ASCII letters, digits,
// '.' and '-' with '_'.
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// Asset is one uploaded file.
type Asset struct {
	Name string
	Data []byte
}

// Request is the upload form.
type Request struct {
	Title       string
	Description string
	Category    string
	Image       Asset
	File        Asset
}

// SessionReader exposes the caller's identity.
type SessionReader interface {
	Current() session.State
}

// Refresher reloads the marketplace after a successful upload.
type Refresher interface {
	FetchAll(ctx context.Context) error
}

// Flow is one client's upload form. It is safe for concurrent use; a
// second Submit while one is in flight is rejected with apperr.ErrBusy.
type Flow struct {
	be        backend.Backend
	sessions  SessionReader
	refresher Refresher
	toasts    toast.Notifier
	now       func() time.Time

	mu      sync.Mutex
	open    bool
	pending bool
}

// New creates a closed upload flow.
func New(be backend.Backend, sessions SessionReader, refresher Refresher, toasts toast.Notifier) *Flow {
	return &Flow{
		be:        be,
		sessions:  sessions,
		refresher: refresher,
		toasts:    toasts,
		now:       time.Now,
	}
}

// Open shows the form. It requires a Session.
func (f *Flow) Open() error {
	if !f.sessions.Current().SignedIn() {
		return apperr.ErrUnauthenticated
	}
	f.mu.Lock()
	f.open = true
	f.mu.Unlock()
	return nil
}

// Close hides the form.
func (f *Flow) Close() {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
}

// IsOpen reports whether the form is shown.
func (f *Flow) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Pending reports whether a submission is in flight.
func (f *Flow) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Validate checks the form without touching the network. Every invalid
// field is listed in the returned *apperr.ValidationError.
func Validate(req *Request) error {
	v := &apperr.ValidationError{}

	if strings.TrimSpace(req.Title) == "" {
		v.Add("title", "Title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		v.Add("description", "Description is required")
	}
	if !models.ValidCategory(req.Category) {
		v.Add("category", fmt.Sprintf("Category must be one of: %s", strings.Join(models.Categories, ", ")))
	}

	switch {
	case len(req.Image.Data) == 0:
		v.Add("image", "Preview image is required")
	case len(req.Image.Data) > MaxImageSize:
		v.Add("image", fmt.Sprintf("Preview image must be at most %d MB", MaxImageSize>>20))
	default:
		if _, err := imaging.Inspect(req.Image.Data); err != nil {
			v.Add("image", "Preview image must be a PNG, JPEG, GIF or WebP image")
		}
	}

	switch {
	case len(req.File.Data) == 0:
		v.Add("file", "Template file is required")
	case !strings.HasSuffix(req.File.Name, FileExtension):
		v.Add("file", "Template file must be .dy format")
	case len(req.File.Data) > MaxFileSize:
		v.Add("file", fmt.Sprintf("Template file must be at most %d MB", MaxFileSize>>20))
	}

	return v.OrNil()
}

// Submit validates req and runs the pipeline: ensure a profile, upload the
// preview, upload the file, resolve both public references and insert the
// row. On success the marketplace is refreshed and the form closes.
func (f *Flow) Submit(ctx context.Context, req Request) (*models.Template, error) {
	st := f.sessions.Current()
	if !st.SignedIn() {
		f.toasts.Show("You must be signed in to upload", toast.Error)
		return nil, apperr.ErrUnauthenticated
	}
	if err := Validate(&req); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return nil, apperr.ErrBusy
	}
	f.pending = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.pending = false
		f.mu.Unlock()
	}()

	row, step, err := f.run(ctx, st.Session, &req)
	if err != nil {
		slog.Error("template upload failed", "step", step, "user_id", st.Session.UserID, "error", err)
		f.toasts.Show(errmsg.From(err, "Upload failed"), toast.Error)
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	f.toasts.Show("Template uploaded successfully!", toast.Success)
	if err := f.refresher.FetchAll(ctx); err != nil {
		slog.Warn("marketplace refresh after upload failed", "error", err)
	}
	f.Close()
	return row, nil
}

// run executes the pipeline and returns the unwrapped failure of the
// first step that failed, with that step's name.
func (f *Flow) run(ctx context.Context, sess *models.Session, req *Request) (*models.Template, string, error) {
	if err := f.ensureProfile(ctx, sess); err != nil {
		return nil, "ensure profile", err
	}

	info, _ := imaging.Inspect(req.Image.Data)
	imgPath := f.objectPath(sess.UserID, req.Image.Name)
	if err := f.be.Storage.Upload(ctx, backend.BucketImages, imgPath, req.Image.Data, backend.UploadOptions{
		ContentType:  info.ContentType,
		CacheControl: cacheControl,
		Upsert:       true,
	}); err != nil {
		return nil, "upload preview", err
	}

	filePath := f.objectPath(sess.UserID, req.File.Name)
	if err := f.be.Storage.Upload(ctx, backend.BucketFiles, filePath, req.File.Data, backend.UploadOptions{
		ContentType:  fileContentType,
		CacheControl: cacheControl,
		Upsert:       true,
	}); err != nil {
		return nil, "upload template file", err
	}

	row, err := f.be.Templates.Insert(ctx, &models.Template{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    f.be.Storage.PublicURL(backend.BucketImages, imgPath),
		FileURL:     f.be.Storage.PublicURL(backend.BucketFiles, filePath),
		UserID:      sess.UserID,
	})
	if err != nil {
		return nil, "insert template", err
	}
	return row, "", nil
}

// ensureProfile creates a placeholder profile named after the email's
// local part when the caller has none, so the owner reference holds.
func (f *Flow) ensureProfile(ctx context.Context, sess *models.Session) error {
	p, err := f.be.Profiles.FindByID(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if p != nil {
		return nil
	}
	return f.be.Profiles.Upsert(ctx, &models.Profile{
		ID:        sess.UserID,
		Username:  models.StringPtr(models.EmailLocalPart(sess.Email)),
		UpdatedAt: f.now(),
	})
}

// objectPath namespaces an object under the owner's id with a millisecond
// timestamp prefix.
func (f *Flow) objectPath(owner uuid.UUID, name string) string {
	return fmt.Sprintf("%s/%d_%s", owner, f.now().UnixMilli(), SanitizeName(name))
}
