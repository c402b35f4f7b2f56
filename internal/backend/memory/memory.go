// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memory is an in-process implementation of the backend contract.
// It is stateful like the real services (maps keyed the way the tables
// are) and records every call so tests can assert that a flow never
// reached the network. Set the *Err fields to inject failures.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/models"
)

type account struct {
	models.Account
	password string
}

// Backend implements backend.Auth, Profiles, Templates and Storage.
type Backend struct {
	// Error injection: zero value means no error.
	SignInErr       error
	SignUpErr       error
	SignOutErr      error
	CurrentErr      error
	FindProfileErr  error
	FindUsernameErr error
	UpsertErr       error
	UpdateFlagsErr  error
	ListErr         error
	CountErr        error
	InsertErr       error
	UpdateErr       error
	DeleteErr       error
	IncrementErr    error
	UploadErr       map[backend.Bucket]error

	// TokenTTL bounds issued sessions; zero means they never expire.
	TokenTTL time.Duration
	// BaseURL prefixes public object references.
	BaseURL string

	mu        sync.Mutex
	now       func() time.Time
	accounts  map[string]*account // keyed by email
	sessions  map[string]models.Session
	profiles  map[uuid.UUID]models.Profile
	templates []models.Template // stored without the owner join
	objects   map[string]stored
	calls     map[string]int
	seq       int
}

type stored struct {
	body []byte
	opts backend.UploadOptions
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		BaseURL:  "https://storage.test",
		now:      time.Now,
		accounts: make(map[string]*account),
		sessions: make(map[string]models.Session),
		profiles: make(map[uuid.UUID]models.Profile),
		objects:  make(map[string]stored),
		calls:    make(map[string]int),
	}
}

// Contract returns b wired into every slot of backend.Backend.
func (b *Backend) Contract() backend.Backend {
	return backend.Backend{Auth: b, Profiles: b, Templates: b, Storage: b}
}

// SetClock replaces the time source used for expiry and timestamps.
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// TotalCalls returns the number of backend calls of any kind.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes the call counters, typically after seeding.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = make(map[string]int)
}

// record must be called with b.mu held.
func (b *Backend) record(op string) {
	b.calls[op]++
}

// --- Auth ---

func (b *Backend) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("sign_in")

	if b.SignInErr != nil {
		return nil, b.SignInErr
	}
	acct, ok := b.accounts[email]
	if !ok || acct.password != password {
		return nil, apperr.ErrInvalidCredentials
	}
	return b.issue(acct)
}

func (b *Backend) SignUp(_ context.Context, email, password string, metadata map[string]string) (*models.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("sign_up")

	if b.SignUpErr != nil {
		return nil, b.SignUpErr
	}
	if _, exists := b.accounts[email]; exists {
		return nil, backend.Rejected(http.StatusUnprocessableEntity, "User already registered")
	}
	acct := &account{
		Account: models.Account{
			ID:        uuid.New(),
			Email:     email,
			Username:  metadata["username"],
			CreatedAt: b.now(),
		},
		password: password,
	}
	b.accounts[email] = acct
	return b.issue(acct)
}

func (b *Backend) SignOut(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("sign_out")

	if b.SignOutErr != nil {
		return b.SignOutErr
	}
	delete(b.sessions, token)
	return nil
}

func (b *Backend) CurrentSession(_ context.Context, token string) (*models.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("current_session")

	if b.CurrentErr != nil {
		return nil, b.CurrentErr
	}
	sess, ok := b.sessions[token]
	if !ok || sess.Expired(b.now()) {
		return nil, nil
	}
	return &sess, nil
}

// issue must be called with b.mu held.
func (b *Backend) issue(acct *account) (*models.Session, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	sess := models.Session{
		Token:  hex.EncodeToString(raw),
		UserID: acct.ID,
		Email:  acct.Email,
	}
	if b.TokenTTL > 0 {
		sess.ExpiresAt = b.now().Add(b.TokenTTL)
	}
	b.sessions[sess.Token] = sess
	return &sess, nil
}

// AddAccount seeds an identity and returns its id.
func (b *Backend) AddAccount(email, password, username string) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := &account{
		Account:  models.Account{ID: uuid.New(), Email: email, Username: username, CreatedAt: b.now()},
		password: password,
	}
	b.accounts[email] = acct
	return acct.ID
}

// Account returns the seeded or signed-up identity for email.
func (b *Backend) Account(email string) (models.Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[email]
	if !ok {
		return models.Account{}, false
	}
	return acct.Account, true
}

// --- Profiles ---

func (b *Backend) FindByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("profile_by_id")

	if b.FindProfileErr != nil {
		return nil, b.FindProfileErr
	}
	p, ok := b.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (b *Backend) FindByUsername(_ context.Context, username string) ([]models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("profile_by_username")

	if b.FindUsernameErr != nil {
		return nil, b.FindUsernameErr
	}
	var out []models.Profile
	for _, p := range b.profiles {
		if p.Username != nil && *p.Username == username {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *Backend) Upsert(_ context.Context, p *models.Profile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("profile_upsert")

	if b.UpsertErr != nil {
		return b.UpsertErr
	}
	if p.Username != nil && *p.Username != "" {
		for id, other := range b.profiles {
			if id != p.ID && other.Username != nil && *other.Username == *p.Username {
				return apperr.ErrUsernameTaken
			}
		}
	}
	next := *p
	if prev, ok := b.profiles[p.ID]; ok {
		next.Verified = prev.Verified
		next.Banned = prev.Banned
	} else {
		next.Verified = false
		next.Banned = false
	}
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = b.now()
	}
	b.profiles[p.ID] = next
	return nil
}

func (b *Backend) UpdateFlags(_ context.Context, id uuid.UUID, flags models.ProfileFlags) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("profile_update_flags")

	if b.UpdateFlagsErr != nil {
		return b.UpdateFlagsErr
	}
	p, ok := b.profiles[id]
	if !ok {
		return backend.Rejected(http.StatusNotFound, "profile not found")
	}
	if flags.Verified != nil {
		p.Verified = *flags.Verified
	}
	if flags.Banned != nil {
		p.Banned = *flags.Banned
	}
	b.profiles[id] = p
	return nil
}

// AddProfile seeds a profile row as-is, flags included.
func (b *Backend) AddProfile(p models.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profiles[p.ID] = p
}

// Profile returns the stored profile row for id.
func (b *Backend) Profile(id uuid.UUID) (models.Profile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.profiles[id]
	return p, ok
}

// --- Templates ---

func (b *Backend) ListWithOwners(_ context.Context) ([]models.Template, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("templates_list")

	if b.ListErr != nil {
		return nil, b.ListErr
	}
	out := make([]models.Template, 0, len(b.templates))
	for _, t := range b.templates {
		if p, ok := b.profiles[t.UserID]; ok {
			owner := p
			t.Owner = &owner
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (b *Backend) CountByOwner(_ context.Context, owner uuid.UUID) (models.AuthorStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("templates_count")

	if b.CountErr != nil {
		return models.AuthorStats{}, b.CountErr
	}
	var stats models.AuthorStats
	for _, t := range b.templates {
		if t.UserID == owner {
			stats.Templates++
			stats.Downloads += t.Downloads
		}
	}
	return stats, nil
}

func (b *Backend) Insert(_ context.Context, t *models.Template) (*models.Template, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("templates_insert")

	if b.InsertErr != nil {
		return nil, b.InsertErr
	}
	if _, ok := b.profiles[t.UserID]; !ok {
		return nil, backend.Rejected(http.StatusConflict,
			`insert or update on table "templates" violates foreign key constraint "templates_user_id_fkey"`)
	}
	row := b.stamp(*t)
	b.templates = append(b.templates, row)
	return &row, nil
}

// stamp assigns id and a strictly increasing created_at. Must be called
// with b.mu held.
func (b *Backend) stamp(t models.Template) models.Template {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	b.seq++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = b.now().Add(time.Duration(b.seq) * time.Millisecond)
	}
	t.Owner = nil
	return t
}

func (b *Backend) Update(_ context.Context, id uuid.UUID, patch models.TemplatePatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("templates_update")

	if b.UpdateErr != nil {
		return b.UpdateErr
	}
	for i := range b.templates {
		if b.templates[i].ID == id {
			b.templates[i] = patch.Apply(b.templates[i])
			return nil
		}
	}
	return backend.Rejected(http.StatusNotFound, "template not found")
}

func (b *Backend) Delete(_ context.Context, id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("templates_delete")

	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	for i := range b.templates {
		if b.templates[i].ID == id {
			b.templates = append(b.templates[:i], b.templates[i+1:]...)
			return nil
		}
	}
	return backend.Rejected(http.StatusNotFound, "template not found")
}

func (b *Backend) IncrementDownloads(_ context.Context, id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("templates_increment")

	if b.IncrementErr != nil {
		return b.IncrementErr
	}
	for i := range b.templates {
		if b.templates[i].ID == id {
			b.templates[i].Downloads++
			return nil
		}
	}
	return nil
}

// AddTemplate seeds a template row and returns it with id and timestamp.
func (b *Backend) AddTemplate(t models.Template) models.Template {
	b.mu.Lock()
	defer b.mu.Unlock()
	row := b.stamp(t)
	b.templates = append(b.templates, row)
	return row
}

// Template returns the stored row for id.
func (b *Backend) Template(id uuid.UUID) (models.Template, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.templates {
		if t.ID == id {
			return t, true
		}
	}
	return models.Template{}, false
}

// TemplateCount returns the number of stored rows.
func (b *Backend) TemplateCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.templates)
}

// --- Storage ---

func (b *Backend) Upload(_ context.Context, bucket backend.Bucket, path string, body []byte, opts backend.UploadOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("storage_upload")

	if err := b.UploadErr[bucket]; err != nil {
		return err
	}
	key := string(bucket) + "/" + path
	if _, exists := b.objects[key]; exists && !opts.Upsert {
		return backend.Rejected(http.StatusConflict, "The resource already exists")
	}
	b.objects[key] = stored{body: append([]byte(nil), body...), opts: opts}
	return nil
}

func (b *Backend) PublicURL(bucket backend.Bucket, path string) string {
	return b.BaseURL + "/" + string(bucket) + "/" + path
}

// Object returns the stored bytes at bucket/path.
func (b *Backend) Object(bucket backend.Bucket, path string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.objects[string(bucket)+"/"+path]
	return o.body, ok
}

// ObjectCount returns the number of stored objects in bucket.
func (b *Backend) ObjectCount(bucket backend.Bucket) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	prefix := string(bucket) + "/"
	for key := range b.objects {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
