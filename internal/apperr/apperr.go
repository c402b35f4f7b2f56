// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the error taxonomy shared by the marketplace
// flows. Sentinels are compared with errors.Is; structured errors with
// errors.As.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated means the action needs a Session that does not exist.
	ErrUnauthenticated = errors.New("you must be signed in")

	// ErrInvalidCredentials is returned by sign-in for a bad email/password pair.
	ErrInvalidCredentials = errors.New("Invalid login credentials")

	// ErrForbidden means the caller is neither the owner nor the administrator.
	ErrForbidden = errors.New("you are not allowed to do that")

	// ErrNotFound means the referenced template or profile is unknown.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is the pre-write uniqueness conflict.
	ErrUsernameTaken = errors.New("Username is already taken")

	// ErrBusy means the same flow already has a request outstanding.
	ErrBusy = errors.New("request already in progress")
)

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a local, pre-network input failure. It is never
// produced by the backend.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records an invalid field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field was recorded.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns e when at least one field was recorded, otherwise nil.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, " ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// PartialSuccess reports that the primary step of an operation succeeded
// but a follow-up step failed. Callers log it and carry on.
type PartialSuccess struct {
	Step string
	Err  error
}

func (e *PartialSuccess) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *PartialSuccess) Unwrap() error { return e.Err }

// NetworkError wraps a transport-level failure talking to a backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
