// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/errmsg"
	"dalley/internal/models"
	"dalley/internal/toast"
)

// Card is the public author card.
type Card struct {
	Profile     models.Profile     `json:"profile"`
	Stats       models.AuthorStats `json:"stats"`
	CanModerate bool               `json:"can_moderate"`
}

// Authors loads author cards and applies moderation. Only the
// administrator identity may moderate, and never their own profile.
type Authors struct {
	profiles  backend.Profiles
	templates backend.Templates
	sessions  Sessions
	toasts    toast.Notifier
	adminID   uuid.UUID

	mu     sync.Mutex
	acting bool
}

// NewAuthors creates an author card service. uuid.Nil disables moderation.
func NewAuthors(profiles backend.Profiles, templates backend.Templates, sessions Sessions, toasts toast.Notifier, adminID uuid.UUID) *Authors {
	return &Authors{
		profiles:  profiles,
		templates: templates,
		sessions:  sessions,
		toasts:    toasts,
		adminID:   adminID,
	}
}

// IsAdmin reports whether the signed-in user is the administrator.
func (a *Authors) IsAdmin() bool {
	st := a.sessions.Current()
	return st.SignedIn() && a.adminID != uuid.Nil && st.Session.UserID == a.adminID
}

// Author returns the card for id: its profile, template count and total
// downloads.
func (a *Authors) Author(ctx context.Context, id uuid.UUID) (*Card, error) {
	p, err := a.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find author: %w", err)
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	stats, err := a.templates.CountByOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count author templates: %w", err)
	}
	return &Card{
		Profile:     *p,
		Stats:       stats,
		CanModerate: a.IsAdmin() && id != a.adminID,
	}, nil
}

// ToggleVerified flips the verified badge of id.
func (a *Authors) ToggleVerified(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return a.toggle(ctx, id, func(p *models.Profile) (models.ProfileFlags, string, toast.Severity) {
		next := !p.Verified
		p.Verified = next
		if next {
			return models.ProfileFlags{Verified: &next}, "User verified", toast.Success
		}
		return models.ProfileFlags{Verified: &next}, "Verification removed", toast.Success
	})
}

// ToggleBanned flips the banned flag of id.
func (a *Authors) ToggleBanned(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return a.toggle(ctx, id, func(p *models.Profile) (models.ProfileFlags, string, toast.Severity) {
		next := !p.Banned
		p.Banned = next
		if next {
			return models.ProfileFlags{Banned: &next}, "User BANNED", toast.Error
		}
		return models.ProfileFlags{Banned: &next}, "User unbanned", toast.Error
	})
}

type flip func(p *models.Profile) (models.ProfileFlags, string, toast.Severity)

func (a *Authors) toggle(ctx context.Context, id uuid.UUID, fn flip) (*models.Profile, error) {
	if !a.IsAdmin() || id == a.adminID {
		a.toasts.Show("Only the administrator can moderate other users", toast.Error)
		return nil, apperr.ErrForbidden
	}

	a.mu.Lock()
	if a.acting {
		a.mu.Unlock()
		return nil, apperr.ErrBusy
	}
	a.acting = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.acting = false
		a.mu.Unlock()
	}()

	p, err := a.profiles.FindByID(ctx, id)
	if err != nil {
		a.toasts.Show(errmsg.From(err, "Moderation failed"), toast.Error)
		return nil, fmt.Errorf("find author: %w", err)
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}

	flags, msg, sev := fn(p)
	if err := a.profiles.UpdateFlags(ctx, id, flags); err != nil {
		a.toasts.Show(errmsg.From(err, "Moderation failed"), toast.Error)
		return nil, fmt.Errorf("update author flags: %w", err)
	}
	a.toasts.Show(msg, sev)
	return p, nil
}
