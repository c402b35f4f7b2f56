// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package app

import (
	"github.com/google/uuid"

	"dalley/internal/markdown"
	"dalley/internal/marketplace"
	"dalley/internal/models"
	"dalley/internal/profile"
	"dalley/internal/toast"
	"dalley/internal/view"
)

// Identity is the browser-facing part of a Session.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// Detail is the template detail view.
type Detail struct {
	models.Template
	DescriptionHTML string `json:"description_html"`
	CanEdit         bool   `json:"can_edit"`
	CanDelete       bool   `json:"can_delete"`
}

// Pending flags long-running actions for their spinners.
type Pending struct {
	Upload    bool `json:"upload"`
	Profile   bool `json:"profile"`
	Templates bool `json:"templates"`
}

// Snapshot is everything needed to render one client.
type Snapshot struct {
	View         view.State           `json:"view"`
	Path         string               `json:"path"`
	CanGoBack    bool                 `json:"can_go_back"`
	CanGoForward bool                 `json:"can_go_forward"`
	Loading      bool                 `json:"loading"`
	Session      *Identity            `json:"session"`
	Profile      *models.Profile      `json:"profile"`
	IsAdmin      bool                 `json:"is_admin"`
	Toasts       []toast.Toast        `json:"toasts"`
	Filter       marketplace.Criteria `json:"filter"`
	Categories   []string             `json:"categories"`
	Templates    []models.Template    `json:"templates"`
	Selected     *Detail              `json:"selected"`
	Modal        Modal                `json:"modal"`
	Author       *profile.Card        `json:"author,omitempty"`
	Pending      Pending              `json:"pending"`
}

// Snapshot captures the client's current state.
func (c *Client) Snapshot() Snapshot {
	vs := c.Router.Current()
	sess := c.Sessions.Current()
	market := c.Market.Snapshot()

	c.mu.Lock()
	modal := c.modal
	author := c.author
	c.mu.Unlock()

	snap := Snapshot{
		View:         vs,
		Path:         vs.Path(),
		CanGoBack:    c.Router.CanGoBack(),
		CanGoForward: c.Router.CanGoForward(),
		Loading:      c.Loading(),
		Profile:      sess.Profile,
		IsAdmin:      c.Authors.IsAdmin(),
		Toasts:       c.Toasts.List(),
		Filter:       market.Criteria,
		Categories:   models.FilterCategories(),
		Templates:    market.Filtered,
		Modal:        modal,
		Pending: Pending{
			Upload:    c.Upload.Pending(),
			Profile:   c.Profile.Saving(),
			Templates: market.Loading,
		},
	}
	if modal == ModalAuthor {
		snap.Author = author
	}
	if sess.Session != nil {
		snap.Session = &Identity{UserID: sess.Session.UserID, Email: sess.Session.Email}
	}
	if market.Selected != nil {
		d := &Detail{
			Template:        *market.Selected,
			DescriptionHTML: markdown.Render(market.Selected.Description),
		}
		if sess.Session != nil {
			d.CanEdit = market.Selected.UserID == sess.Session.UserID
			d.CanDelete = d.CanEdit || c.Market.IsAdmin(sess.Session.UserID)
		}
		snap.Selected = d
	}
	return snap
}
