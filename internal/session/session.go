// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session owns a client's single authoritative Session and the
// Profile derived from it. Consumers read it through Current and observe
// transitions through Subscribe; only the Store's own operations mutate it.
package session

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
	"dalley/internal/models"
)

// State is a read-only snapshot of the store.
type State struct {
	Session *models.Session `json:"session"`
	Profile *models.Profile `json:"profile"`
}

// SignedIn reports whether the snapshot carries a Session.
func (s State) SignedIn() bool { return s.Session != nil }

// TokenSink is told about every token change so the persisted copy of the
// identity token stays in step with the store.
type TokenSink interface {
	StoreToken(ctx context.Context, token string, expires time.Time) error
	ClearToken(ctx context.Context) error
}

// Store holds at most one Session at a time. Safe for concurrent use;
// subscribers are called synchronously, outside the lock.
type Store struct {
	auth     backend.Auth
	profiles backend.Profiles
	sink     TokenSink
	now      func() time.Time

	mu      sync.Mutex
	sess    *models.Session
	profile *models.Profile
	subs    map[int]func(State)
	nextSub int
}

// NewStore creates a signed-out store.
func NewStore(auth backend.Auth, profiles backend.Profiles) *Store {
	return &Store{
		auth:     auth,
		profiles: profiles,
		now:      time.Now,
		subs:     make(map[int]func(State)),
	}
}

// SetTokenSink installs the persisted-token hook.
func (s *Store) SetTokenSink(sink TokenSink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Hydrate initialises the store from a persisted token at startup. An
// empty, unknown or expired token leaves the store signed out and clears
// the persisted copy.
func (s *Store) Hydrate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	sess, err := s.auth.CurrentSession(ctx, token)
	if err != nil {
		return &apperr.NetworkError{Op: "restore session", Err: err}
	}
	if sess == nil || sess.Expired(s.now()) {
		s.clearToken(ctx)
		return nil
	}

	s.mu.Lock()
	s.sess = sess
	s.profile = nil
	s.mu.Unlock()
	s.notify()

	s.loadProfile(ctx, sess.UserID)
	return nil
}

// SignIn authenticates and populates the Session, then fetches the Profile.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return apperr.ErrInvalidCredentials
	}

	sess, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	s.establish(ctx, sess)
	s.loadProfile(ctx, sess.UserID)
	return nil
}

// SignUp creates an identity and then an initial Profile row. The returned
// Session is valid even when the error is a *apperr.PartialSuccess: the
// identity exists and the profile is completed lazily later.
func (s *Store) SignUp(ctx context.Context, email, password, username string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	fields := &apperr.ValidationError{}
	if email == "" {
		fields.Add("email", "Email is required")
	}
	if password == "" {
		fields.Add("password", "Password is required")
	}
	if username == "" {
		fields.Add("username", "Username is required")
	}
	if err := fields.OrNil(); err != nil {
		return nil, err
	}

	sess, err := s.auth.SignUp(ctx, email, password, map[string]string{"username": username})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	s.establish(ctx, sess)

	row := &models.Profile{
		ID:        sess.UserID,
		Username:  &username,
		UpdatedAt: s.now(),
	}
	if err := s.profiles.Upsert(ctx, row); err != nil {
		slog.Warn("initial profile not created", "user_id", sess.UserID, "error", err)
		return sess, &apperr.PartialSuccess{Step: "create profile", Err: err}
	}

	s.loadProfile(ctx, sess.UserID)
	return sess, nil
}

// SignOut invalidates the Session and clears the cached Profile. Calling it
// while signed out is a no-op with no network call. Local state is cleared
// even when the backend call fails.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	s.profile = nil
	s.mu.Unlock()

	if sess == nil {
		return nil
	}
	s.notify()
	s.clearToken(ctx)

	if err := s.auth.SignOut(ctx, sess.Token); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// RefreshProfile re-fetches the Profile for the current Session. No-op
// when signed out.
func (s *Store) RefreshProfile(ctx context.Context) error {
	st := s.Current()
	if st.Session == nil {
		return nil
	}

	p, err := s.profiles.FindByID(ctx, st.Session.UserID)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	s.setProfile(st.Session.UserID, p)
	return nil
}

// Current returns the active Session and Profile. An expired token reads
// as signed out.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil || s.sess.Expired(s.now()) {
		return State{}
	}
	sess := *s.sess
	st := State{Session: &sess}
	if s.profile != nil {
		p := *s.profile
		st.Profile = &p
	}
	return st
}

// UserID returns the signed-in user's id.
func (s *Store) UserID() (uuid.UUID, bool) {
	st := s.Current()
	if st.Session == nil {
		return uuid.Nil, false
	}
	return st.Session.UserID, true
}

// Subscribe registers fn for every transition. The returned func
// unsubscribes.
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

func (s *Store) establish(ctx context.Context, sess *models.Session) {
	s.mu.Lock()
	s.sess = sess
	s.profile = nil
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		if err := sink.StoreToken(ctx, sess.Token, sess.ExpiresAt); err != nil {
			slog.Error("failed to persist token", "user_id", sess.UserID, "error", err)
		}
	}
	s.notify()
}

// loadProfile fetches the profile after a sign-in. Failures are logged:
// the Session stands without a cached profile.
func (s *Store) loadProfile(ctx context.Context, userID uuid.UUID) {
	p, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		slog.Warn("profile fetch failed", "user_id", userID, "error", err)
		return
	}
	s.setProfile(userID, p)
}

// setProfile caches p unless the Session changed while it was in flight.
func (s *Store) setProfile(userID uuid.UUID, p *models.Profile) {
	s.mu.Lock()
	if s.sess == nil || s.sess.UserID != userID {
		s.mu.Unlock()
		return
	}
	s.profile = p
	s.mu.Unlock()
	s.notify()
}

func (s *Store) clearToken(ctx context.Context) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil {
		return
	}
	if err := sink.ClearToken(ctx); err != nil {
		slog.Error("failed to clear persisted token", "error", err)
	}
}

func (s *Store) notify() {
	st := s.Current()

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
