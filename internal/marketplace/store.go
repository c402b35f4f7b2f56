// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package marketplace owns a client's fetched template collection, the
// filtered view derived from it, the open detail view, and the
// per-template mutations (download count, edit, delete).
package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/errmsg"
	"dalley/internal/models"
	"dalley/internal/toast"
)

// backgroundTimeout bounds fire-and-forget writes, which outlive the
// request that started them.
const backgroundTimeout = 10 * time.Second

// Identity reports the signed-in user.
type Identity interface {
	UserID() (uuid.UUID, bool)
}

// State is a read-only snapshot of the store.
type State struct {
	Templates []models.Template `json:"-"`
	Filtered  []models.Template `json:"templates"`
	Criteria  Criteria          `json:"filter"`
	Selected  *models.Template  `json:"selected"`
	Loading   bool              `json:"loading"`
}

// Store is safe for concurrent use. Subscribers are called synchronously,
// outside the lock.
type Store struct {
	templates backend.Templates
	identity  Identity
	toasts    toast.Notifier
	adminID   uuid.UUID

	mu       sync.Mutex
	cache    []models.Template
	criteria Criteria
	selected *uuid.UUID
	loading  bool
	subs     map[int]func(State)
	nextSub  int

	pending sync.WaitGroup
}

// NewStore creates an empty store. adminID is the moderator identity
// allowed to delete any listing; uuid.Nil disables it.
func NewStore(templates backend.Templates, identity Identity, toasts toast.Notifier, adminID uuid.UUID) *Store {
	return &Store{
		templates: templates,
		identity:  identity,
		toasts:    toasts,
		adminID:   adminID,
		criteria:  Criteria{Category: models.CategoryAll},
		subs:      make(map[int]func(State)),
	}
}

// FetchAll replaces the cache with every template, newest first. On
// failure the previous cache is kept.
func (s *Store) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.notify()

	list, err := s.templates.ListWithOwners(ctx)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.cache = list
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		slog.Error("failed to fetch templates", "error", err)
		return &apperr.NetworkError{Op: "fetch templates", Err: err}
	}
	return nil
}

// SetCategory changes the category constraint. c must be models.CategoryAll
// or a storable category.
func (s *Store) SetCategory(c string) error {
	if c == "" {
		c = models.CategoryAll
	}
	if c != models.CategoryAll && !models.ValidCategory(c) {
		return apperr.Invalid("category", fmt.Sprintf("Unknown category %q", c))
	}
	s.mu.Lock()
	s.criteria.Category = c
	s.mu.Unlock()
	s.notify()
	return nil
}

// SetSearch changes the free-text constraint.
func (s *Store) SetSearch(q string) {
	s.mu.Lock()
	s.criteria.Search = q
	s.mu.Unlock()
	s.notify()
}

// ApplyFilter sets both constraints at once.
func (s *Store) ApplyFilter(c Criteria) error {
	if err := s.SetCategory(c.Category); err != nil {
		return err
	}
	s.SetSearch(c.Search)
	return nil
}

// Filtered returns the cache narrowed by the current criteria.
func (s *Store) Filtered() []models.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.cache, s.criteria)
}

// Templates returns a copy of the whole cache.
func (s *Store) Templates() []models.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Template(nil), s.cache...)
}

// Get returns the cached template with id.
func (s *Store) Get(id uuid.UUID) (models.Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Template{}, false
	}
	return s.cache[i], true
}

// Loading reports whether a fetch is outstanding.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Select opens the detail view of a cached template.
func (s *Store) Select(id uuid.UUID) error {
	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return apperr.ErrNotFound
	}
	s.selected = &id
	s.mu.Unlock()
	s.notify()
	return nil
}

// CloseDetail closes the detail view.
func (s *Store) CloseDetail() {
	s.mu.Lock()
	changed := s.selected != nil
	s.selected = nil
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Selected returns the template shown in the detail view, if any.
func (s *Store) Selected() *models.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

// IncrementDownload bumps the local counter and records the download on
// the backend in the background. It returns the file reference to hand to
// the browser. Unknown ids are a no-op.
func (s *Store) IncrementDownload(ctx context.Context, id uuid.UUID) (string, bool) {
	t, ok := s.Get(id)
	if !ok {
		return "", false
	}

	s.run(ctx, OpDownload, id,
		func(ctx context.Context) error { return s.templates.IncrementDownloads(ctx, id) },
		func() {
			if i := s.indexOf(id); i >= 0 {
				s.cache[i].Downloads++
			}
		},
		func() {
			if i := s.indexOf(id); i >= 0 && s.cache[i].Downloads > 0 {
				s.cache[i].Downloads--
			}
		},
	)
	return t.FileURL, true
}

// UpdateTemplate edits the title and description. Only the owner may edit;
// the cache changes only after the backend confirms.
func (s *Store) UpdateTemplate(ctx context.Context, id uuid.UUID, patch models.TemplatePatch) error {
	t, err := s.authorize(id, false)
	if err != nil {
		return s.fail(err)
	}

	fields := &apperr.ValidationError{}
	if strings.TrimSpace(patch.Title) == "" {
		fields.Add("title", "Title is required")
	}
	if strings.TrimSpace(patch.Description) == "" {
		fields.Add("description", "Description is required")
	}
	if err := fields.OrNil(); err != nil {
		return err
	}

	err = s.run(ctx, OpUpdate, t.ID,
		func(ctx context.Context) error { return s.templates.Update(ctx, id, patch) },
		func() {
			if i := s.indexOf(id); i >= 0 {
				s.cache[i] = patch.Apply(s.cache[i])
			}
		},
		nil,
	)
	if err != nil {
		return s.fail(err)
	}
	s.toasts.Show("Template updated successfully", toast.Success)
	return nil
}

// DeleteTemplate irreversibly removes a listing. The owner and the
// administrator may delete; the detail view closes if it shows the item.
func (s *Store) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.authorize(id, true); err != nil {
		return s.fail(err)
	}

	err := s.run(ctx, OpDelete, id,
		func(ctx context.Context) error { return s.templates.Delete(ctx, id) },
		func() {
			if i := s.indexOf(id); i >= 0 {
				s.cache = append(s.cache[:i:i], s.cache[i+1:]...)
			}
			if s.selected != nil && *s.selected == id {
				s.selected = nil
			}
		},
		nil,
	)
	if err != nil {
		return s.fail(err)
	}
	s.toasts.Show("Template deleted successfully", toast.Success)
	return nil
}

// Wait blocks until every background write has finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

// IsAdmin reports whether id is the administrator identity.
func (s *Store) IsAdmin(id uuid.UUID) bool {
	return s.adminID != uuid.Nil && id == s.adminID
}

// Snapshot returns the full store state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Templates: append([]models.Template(nil), s.cache...),
		Filtered:  Filter(s.cache, s.criteria),
		Criteria:  s.criteria,
		Selected:  s.selectedLocked(),
		Loading:   s.loading,
	}
}

// Subscribe registers fn for every change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// authorize checks session, presence and ownership before any network
// call. allowAdmin extends the permission to the administrator.
func (s *Store) authorize(id uuid.UUID, allowAdmin bool) (models.Template, error) {
	uid, ok := s.identity.UserID()
	if !ok {
		return models.Template{}, apperr.ErrUnauthenticated
	}
	t, ok := s.Get(id)
	if !ok {
		return models.Template{}, apperr.ErrNotFound
	}
	if t.UserID == uid || (allowAdmin && s.IsAdmin(uid)) {
		return t, nil
	}
	return models.Template{}, apperr.ErrForbidden
}

// run applies a mutation according to its policy. local and undo run with
// s.mu held.
func (s *Store) run(ctx context.Context, op Op, id uuid.UUID, remote func(context.Context) error, local, undo func()) error {
	p := PolicyFor(op)

	if !p.Optimistic {
		if err := remote(ctx); err != nil {
			return err
		}
		s.mu.Lock()
		local()
		s.mu.Unlock()
		s.notify()
		return nil
	}

	s.mu.Lock()
	local()
	s.mu.Unlock()
	s.notify()

	bg := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(bg, backgroundTimeout)
		defer cancel()

		err := remote(ctx)
		if err == nil {
			return
		}
		slog.Warn("background write failed", "op", op, "template_id", id, "error", err)
		if p.Rollback && undo != nil {
			s.mu.Lock()
			undo()
			s.mu.Unlock()
			s.notify()
		}
		if p.Surface {
			s.toasts.Show(errmsg.From(err, "Something went wrong"), toast.Error)
		}
	}()
	return nil
}

// fail reports err to the toast bus and returns it.
func (s *Store) fail(err error) error {
	s.toasts.Show(errmsg.From(err, "Something went wrong"), toast.Error)
	return err
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id uuid.UUID) int {
	for i := range s.cache {
		if s.cache[i].ID == id {
			return i
		}
	}
	return -1
}

// selectedLocked must be called with s.mu held.
func (s *Store) selectedLocked() *models.Template {
	if s.selected == nil {
		return nil
	}
	i := s.indexOf(*s.selected)
	if i < 0 {
		return nil
	}
	t := s.cache[i]
	return &t
}

func (s *Store) notify() {
	st := s.Snapshot()

	s.mu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
