// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public-facing record of a user, keyed by the Session's
// user id. Username is nullable until the user picks one.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Username  *string   `json:"username"`
	Bio       *string   `json:"bio"`
	AvatarURL *string   `json:"avatar_url"`
	Verified  bool      `json:"is_verified"`
	Banned    bool      `json:"is_banned"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the username, or "Unknown" when none is set.
func (p *Profile) DisplayName() string {
	if p == nil || p.Username == nil || *p.Username == "" {
		return "Unknown"
	}
	return *p.Username
}

// ProfileFlags is a partial update of moderation fields. Nil fields are
// left unchanged.
type ProfileFlags struct {
	Verified *bool
	Banned   *bool
}

// AuthorStats summarises an author's marketplace activity.
type AuthorStats struct {
	Templates int   `json:"templates"`
	Downloads int64 `json:"downloads"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
