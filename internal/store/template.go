// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"dalley/internal/backend"
	"dalley/internal/models"
)

// TemplateStore implements backend.Templates over the templates table.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = `id, title, description, category, image_url, file_url, downloads, created_at, user_id`

func scanTemplate(row interface{ Scan(...any) error }, t *models.Template) error {
	return row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.ImageURL,
		&t.FileURL, &t.Downloads, &t.CreatedAt, &t.UserID,
	)
}

// ListWithOwners returns every template, newest first, with the owner's
// profile joined. Owner is nil when the owner has no profile row.
func (s *TemplateStore) ListWithOwners(ctx context.Context) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.description, t.category, t.image_url, t.file_url,
		       t.downloads, t.created_at, t.user_id,
		       p.id, p.username, p.bio, p.avatar_url, p.is_verified, p.is_banned, p.updated_at
		FROM templates t
		LEFT JOIN profiles p ON p.id = t.user_id
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var (
			t        models.Template
			ownerID  uuid.NullUUID
			username sql.NullString
			bio      sql.NullString
			avatar   sql.NullString
			verified sql.NullBool
			banned   sql.NullBool
			updated  sql.NullTime
		)
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Category, &t.ImageURL,
			&t.FileURL, &t.Downloads, &t.CreatedAt, &t.UserID,
			&ownerID, &username, &bio, &avatar, &verified, &banned, &updated,
		); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		if ownerID.Valid {
			t.Owner = &models.Profile{
				ID:        ownerID.UUID,
				Username:  nullString(username),
				Bio:       nullString(bio),
				AvatarURL: nullString(avatar),
				Verified:  verified.Bool,
				Banned:    banned.Bool,
				UpdatedAt: updated.Time,
			}
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// CountByOwner returns how many templates owner has published and their
// combined downloads.
func (s *TemplateStore) CountByOwner(ctx context.Context, owner uuid.UUID) (models.AuthorStats, error) {
	var stats models.AuthorStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(downloads), 0)
		FROM templates WHERE user_id = $1
	`, owner).Scan(&stats.Templates, &stats.Downloads)
	if err != nil {
		return models.AuthorStats{}, fmt.Errorf("count templates by owner: %w", err)
	}
	return stats, nil
}

// Insert creates a template row and returns it as stored. Owner is not
// joined on the returned row.
func (s *TemplateStore) Insert(ctx context.Context, t *models.Template) (*models.Template, error) {
	out := &models.Template{}
	err := scanTemplate(s.db.QueryRowContext(ctx, `
		INSERT INTO templates (title, description, category, image_url, file_url, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+templateColumns,
		t.Title, t.Description, t.Category, t.ImageURL, t.FileURL, t.UserID,
	), out)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", reject(err))
	}
	return out, nil
}

// Update replaces the owner-editable fields.
func (s *TemplateStore) Update(ctx context.Context, id uuid.UUID, patch models.TemplatePatch) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE templates SET title = $1, description = $2 WHERE id = $3
	`, patch.Title, patch.Description, id)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return backend.Rejected(http.StatusNotFound, "template not found")
	}
	return nil
}

// Delete removes a template row. Stored assets are left in place.
func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return backend.Rejected(http.StatusNotFound, "template not found")
	}
	return nil
}

// IncrementDownloads bumps the counter in a single statement so concurrent
// downloads never lose an update. Unknown ids are ignored.
func (s *TemplateStore) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE templates SET downloads = downloads + 1 WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

var _ backend.Templates = (*TemplateStore)(nil)
