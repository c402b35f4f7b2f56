// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package backend

import "fmt"

// Error is a rejection reported by the backend, shaped like the JSON error
// bodies hosted backends return. Either field may be empty.
type Error struct {
	Status      int    `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
	Description string `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Description != "":
		return e.Description
	default:
		return fmt.Sprintf("backend error (status %d)", e.Status)
	}
}

// Rejected builds an Error with a message.
func Rejected(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}
