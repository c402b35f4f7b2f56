// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package app

import (
	"fmt"

	"github.com/google/uuid"
)

// Command is a cross-region trigger, such as one part of the page asking
// for a modal another part owns. The set is closed: only the types below
// implement it.
type Command interface {
	Kind() string
}

type (
	// OpenAuth shows the sign-in / sign-up modal.
	OpenAuth struct{}
	// OpenProfile shows the signed-in user's profile form.
	OpenProfile struct{}
	// OpenUpload shows the upload form. Requires a Session.
	OpenUpload struct{}
	// OpenTemplate shows a template's detail view.
	OpenTemplate struct{ ID uuid.UUID }
	// OpenAuthor shows an author card.
	OpenAuthor struct{ ID uuid.UUID }
	// CloseModal closes whatever modal is shown.
	CloseModal struct{}
)

func (OpenAuth) Kind() string     { return "open_auth" }
func (OpenProfile) Kind() string  { return "open_profile" }
func (OpenUpload) Kind() string   { return "open_upload" }
func (OpenTemplate) Kind() string { return "open_template" }
func (OpenAuthor) Kind() string   { return "open_author" }
func (CloseModal) Kind() string   { return "close_modal" }

// ParseCommand builds a Command from its wire form. id is required for
// open_template and open_author.
func ParseCommand(kind, id string) (Command, error) {
	switch kind {
	case "open_auth":
		return OpenAuth{}, nil
	case "open_profile":
		return OpenProfile{}, nil
	case "open_upload":
		return OpenUpload{}, nil
	case "close_modal":
		return CloseModal{}, nil
	case "open_template", "open_author":
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("command %s: invalid id %q", kind, id)
		}
		if kind == "open_template" {
			return OpenTemplate{ID: parsed}, nil
		}
		return OpenAuthor{ID: parsed}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", kind)
	}
}

// Modal names the modal currently shown.
type Modal string

const (
	ModalNone     Modal = ""
	ModalAuth     Modal = "auth"
	ModalProfile  Modal = "profile"
	ModalUpload   Modal = "upload"
	ModalTemplate Modal = "template"
	ModalAuthor   Modal = "author"
)
