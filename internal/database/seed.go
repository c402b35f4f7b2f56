// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// adminUsername is the profile name given to the seeded administrator.
const adminUsername = "admin"

// SeedAdmin makes sure the administrator account and its verified profile
// exist and returns the administrator's id. An existing account is left
// as is, password included.
func SeedAdmin(ctx context.Context, db *sql.DB, email, password string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRowContext(ctx, "SELECT id FROM accounts WHERE email = $1", email).Scan(&id)
	switch {
	case err == nil:
		slog.Debug("admin account present", "email", email)
	case errors.Is(err, sql.ErrNoRows):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return uuid.Nil, fmt.Errorf("seed bcrypt: %w", err)
		}
		err = db.QueryRowContext(ctx, `
			INSERT INTO accounts (email, password_hash, username)
			VALUES ($1, $2, $3)
			RETURNING id
		`, email, string(hash), adminUsername).Scan(&id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("seed insert admin: %w", err)
		}
		slog.Info("database seeded with admin account", "email", email)
	default:
		return uuid.Nil, fmt.Errorf("seed check admin: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO profiles (id, username, is_verified)
		VALUES ($1, $2, TRUE)
		ON CONFLICT DO NOTHING
	`, id, adminUsername)
	if err != nil {
		return uuid.Nil, fmt.Errorf("seed admin profile: %w", err)
	}
	return id, nil
}
