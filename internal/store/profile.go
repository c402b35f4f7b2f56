// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/models"
)

// ProfileStore implements backend.Profiles over the profiles table.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore with the given database connection.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileColumns = `id, username, bio, avatar_url, is_verified, is_banned, updated_at`

func scanProfile(row interface{ Scan(...any) error }, p *models.Profile) error {
	return row.Scan(&p.ID, &p.Username, &p.Bio, &p.AvatarURL, &p.Verified, &p.Banned, &p.UpdatedAt)
}

// FindByID retrieves a profile by its owner's id. Returns nil if not found.
func (s *ProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id), p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return p, nil
}

// FindByUsername returns every profile holding username.
func (s *ProfileStore) FindByUsername(ctx context.Context, username string) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("find profile by username: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Upsert writes the editable profile fields. is_verified and is_banned are
// left out of the conflict update so moderation survives profile edits. A
// username held by another profile fails with apperr.ErrUsernameTaken.
func (s *ProfileStore) Upsert(ctx context.Context, p *models.Profile) error {
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, username, bio, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			bio = EXCLUDED.bio,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Username, p.Bio, p.AvatarURL, updated)
	if isUniqueViolation(err, usernameIndex) {
		return fmt.Errorf("upsert profile: %w", apperr.ErrUsernameTaken)
	}
	if err != nil {
		return fmt.Errorf("upsert profile: %w", reject(err))
	}
	return nil
}

// UpdateFlags changes the moderation flags that are set in flags.
func (s *ProfileStore) UpdateFlags(ctx context.Context, id uuid.UUID, flags models.ProfileFlags) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET
			is_verified = COALESCE($2, is_verified),
			is_banned = COALESCE($3, is_banned)
		WHERE id = $1
	`, id, flags.Verified, flags.Banned)
	if err != nil {
		return fmt.Errorf("update profile flags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return backend.Rejected(http.StatusNotFound, "profile not found")
	}
	return nil
}

var _ backend.Profiles = (*ProfileStore)(nil)
