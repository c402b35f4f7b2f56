// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package errmsg turns whatever a backend call failed with into a string
// that can be shown in a toast. Backends do not always fail with a plain
// error: some hand back decoded JSON bodies or structs.
package errmsg

import (
	"encoding/json"
	"errors"
	"fmt"

	"dalley/internal/apperr"
	"dalley/internal/backend"
)

// sentinels are the taxonomy errors whose text is written for users.
var sentinels = []error{
	apperr.ErrUnauthenticated, apperr.ErrInvalidCredentials, apperr.ErrForbidden,
	apperr.ErrNotFound, apperr.ErrUsernameTaken, apperr.ErrBusy,
}

// From normalises v into a human-readable message. It checks, in order:
// a string, an error (see fromError), a structured value (its "message"
// or "error_description" field, else the whole value as JSON). fallback
// is used when nothing readable comes out.
func From(v any, fallback string) string {
	var msg string
	switch x := v.(type) {
	case nil:
		return fallback
	case string:
		msg = x
	case error:
		msg = fromError(x)
	case fmt.Stringer:
		msg = x.String()
	default:
		msg = fromStructured(x)
	}
	if msg == "" {
		return fallback
	}
	return msg
}

// Sentinel returns the taxonomy error err wraps, or nil.
func Sentinel(err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// fromError digs the user-facing part out of an error chain. A backend
// rejection anywhere in the chain wins, then a validation failure, then a
// taxonomy sentinel. Other wrapped errors carry adapter step names and
// transport details, so they yield "" and the caller's fallback. A bare
// unwrapped error keeps its own text.
func fromError(err error) string {
	var be *backend.Error
	if errors.As(err, &be) {
		return be.Error()
	}
	var v *apperr.ValidationError
	if errors.As(err, &v) {
		return v.Error()
	}
	if s := Sentinel(err); s != nil {
		return s.Error()
	}
	if _, ok := err.(interface{ Unwrap() error }); ok {
		return ""
	}
	if _, ok := err.(interface{ Unwrap() []error }); ok {
		return ""
	}
	return err.Error()
}

// fromStructured extracts a message from maps or structs by round-tripping
// them through JSON, so json tags decide the field names.
func fromStructured(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err == nil {
		for _, key := range []string{"message", "error_description"} {
			if s, ok := fields[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return string(raw)
}
