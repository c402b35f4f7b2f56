// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package profile edits the signed-in user's own profile and serves the
// public author card, including the administrator's moderation toggles.
package profile

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/errmsg"
	"dalley/internal/models"
	"dalley/internal/session"
	"dalley/internal/toast"
)

// Sessions is the part of the session store the profile flow drives.
// Profile changes go through the backend and then RefreshProfile; the
// cached copy is never written directly.
type Sessions interface {
	Current() session.State
	RefreshProfile(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// Input is the profile form.
type Input struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// Flow is one client's profile form.
type Flow struct {
	profiles backend.Profiles
	sessions Sessions
	toasts   toast.Notifier
	now      func() time.Time

	mu     sync.Mutex
	open   bool
	saving bool
}

// NewFlow creates a closed profile form.
func NewFlow(profiles backend.Profiles, sessions Sessions, toasts toast.Notifier) *Flow {
	return &Flow{
		profiles: profiles,
		sessions: sessions,
		toasts:   toasts,
		now:      time.Now,
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

// Saving reports whether a save is in flight.
func (f *Flow) Saving() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saving
}

// Validate trims in and checks it locally.
func Validate(in *Input) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Bio = strings.TrimSpace(in.Bio)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)

	v := &apperr.ValidationError{}
	if in.Username == "" {
		v.Add("username", "Username cannot be empty")
	}
	if in.AvatarURL != "" {
		u, err := url.Parse(in.AvatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			v.Add("avatar_url", "Avatar must be an http or https URL")
		}
	}
	return v.OrNil()
}

// Save writes the caller's profile. An empty username fails before any
// network call; a username held by another profile fails with
// apperr.ErrUsernameTaken and writes nothing. The lookup and the write are
// not atomic; a concurrent claim is caught by the unique username index and
// reported the same way.
func (f *Flow) Save(ctx context.Context, in Input) error {
	st := f.sessions.Current()
	if !st.SignedIn() {
		return apperr.ErrUnauthenticated
	}
	if err := Validate(&in); err != nil {
		return err
	}

	f.mu.Lock()
	if f.saving {
		f.mu.Unlock()
		return apperr.ErrBusy
	}
	f.saving = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.saving = false
		f.mu.Unlock()
	}()

	if err := f.save(ctx, st.Session, in); err != nil {
		slog.Error("profile update failed", "user_id", st.Session.UserID, "error", err)
		f.toasts.Show(errmsg.From(err, "Failed to update profile"), toast.Error)
		return err
	}

	if err := f.sessions.RefreshProfile(ctx); err != nil {
		slog.Warn("profile refresh after save failed", "user_id", st.Session.UserID, "error", err)
	}
	f.toasts.Show("Profile updated successfully", toast.Success)
	return nil
}

func (f *Flow) save(ctx context.Context, sess *models.Session, in Input) error {
	holders, err := f.profiles.FindByUsername(ctx, in.Username)
	if err != nil {
		return err
	}
	for _, p := range holders {
		if p.ID != sess.UserID {
			return apperr.ErrUsernameTaken
		}
	}

	bio := in.Bio
	return f.profiles.Upsert(ctx, &models.Profile{
		ID:        sess.UserID,
		Username:  &in.Username,
		Bio:       &bio,
		AvatarURL: models.StringPtr(in.AvatarURL),
		UpdatedAt: f.now(),
	})
}

// SignOut signs out from the profile view and closes it.
func (f *Flow) SignOut(ctx context.Context) error {
	err := f.sessions.SignOut(ctx)
	if err != nil {
		slog.Warn("backend sign-out failed", "error", err)
	}
	f.toasts.Show("Signed out successfully", toast.Info)
	f.Close()
	return err
}
