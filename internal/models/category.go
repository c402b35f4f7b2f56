// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// CategoryAll is the filter sentinel meaning "no category constraint".
// It is never stored on a Template.
const CategoryAll = "All"

// Categories lists every storable template category in display order.
var Categories = []string{
	"HUD",
	"Inventory",
	"Shop",
	"Menu",
	"Notification",
	"Admin Panel",
}

// DefaultCategory is preselected in the upload form.
const DefaultCategory = "HUD"

// ValidCategory reports whether c may be stored on a Template.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// FilterCategories returns the categories offered by the marketplace
// filter, starting with the All sentinel.
func FilterCategories() []string {
	return append([]string{CategoryAll}, Categories...)
}
