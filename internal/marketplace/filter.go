// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package marketplace

import (
	"strings"

	"dalley/internal/models"
)

// Criteria is the marketplace filter: an exact category (models.CategoryAll
// or empty for none) and a free-text search.
type Criteria struct {
	Category string `json:"category"`
	Search   string `json:"search"`
}

// Filter returns the templates matching c, preserving order. Category is
// an exact match; search is a case-insensitive substring of the title or
// the owner's username. A blank search matches everything; otherwise the
// query is matched as typed, surrounding spaces included. The input slice
// is never modified.
func Filter(templates []models.Template, c Criteria) []models.Template {
	search := strings.TrimSpace(c.Search) != ""
	q := strings.ToLower(c.Search)
	anyCategory := c.Category == "" || c.Category == models.CategoryAll

	out := make([]models.Template, 0, len(templates))
	for _, t := range templates {
		if !anyCategory && t.Category != c.Category {
			continue
		}
		if search && !matches(&t, q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(t *models.Template, q string) bool {
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	owner := t.OwnerUsername()
	return owner != "" && strings.Contains(strings.ToLower(owner), q)
}
