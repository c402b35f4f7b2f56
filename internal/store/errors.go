// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"dalley/internal/backend"
)

// PostgreSQL error codes the stores translate into rejections.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
)

// usernameIndex is the unique index guarding profile usernames.
const usernameIndex = "idx_profiles_username"

// isUniqueViolation reports whether err is a unique violation of constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraint
}

// reject converts constraint violations into a *backend.Error so callers
// see the same rejection shape as any other backend. Other errors are
// returned unchanged.
func reject(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return &backend.Error{Status: http.StatusConflict, Message: pgErr.Message, Description: pgErr.Detail}
	case codeForeignKeyViolation, codeNotNullViolation:
		return &backend.Error{Status: http.StatusBadRequest, Message: pgErr.Message, Description: pgErr.Detail}
	}
	return err
}
