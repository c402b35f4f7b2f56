// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Template is a marketplace listing: metadata plus two stored assets (a
// preview image and the editor's .dy export file). Owner is the joined
// profile snapshot and may be nil if the join found nothing.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	FileURL     string    `json:"file_url"`
	Downloads   int64     `json:"downloads"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      uuid.UUID `json:"user_id"`
	Owner       *Profile  `json:"profiles,omitempty"`
}

// OwnerUsername returns the joined owner's username or "".
func (t *Template) OwnerUsername() string {
	if t.Owner == nil || t.Owner.Username == nil {
		return ""
	}
	return *t.Owner.Username
}

// TemplatePatch holds the owner-editable fields of a Template.
type TemplatePatch struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Apply returns a copy of t with the patch fields replaced.
func (p TemplatePatch) Apply(t Template) Template {
	t.Title = p.Title
	t.Description = p.Description
	return t
}
