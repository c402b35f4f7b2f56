// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package backend defines the contract the marketplace coordinator consumes
// from its hosted backend: authentication, the profiles and templates
// relations, and object storage. Implementations live in internal/auth,
// internal/store and internal/storage (managed services) and in
// internal/backend/memory (tests).
package backend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dalley/internal/models"
)

// Bucket names a logical object storage bucket.
type Bucket string

const (
	// BucketImages holds template preview images.
	BucketImages Bucket = "template-images"

	// BucketFiles holds .dy template export files.
	BucketFiles Bucket = "template-files"
)

// Auth issues and validates Sessions.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	// SignUp creates an identity. metadata is stored alongside it
	// (currently only "username").
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	// CurrentSession validates a persisted token. Returns nil, nil for an
	// unknown, revoked or expired token.
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
}

// Profiles is the profiles relation.
type Profiles interface {
	// FindByID returns nil, nil when no profile row exists yet.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByUsername(ctx context.Context, username string) ([]models.Profile, error)
	// Upsert writes id, username, bio, avatar_url and updated_at. Moderation
	// flags are never touched by an upsert.
	Upsert(ctx context.Context, p *models.Profile) error
	UpdateFlags(ctx context.Context, id uuid.UUID, flags models.ProfileFlags) error
}

// Templates is the templates relation.
type Templates interface {
	// ListWithOwners returns every template with its owner profile joined,
	// newest first.
	ListWithOwners(ctx context.Context) ([]models.Template, error)
	CountByOwner(ctx context.Context, owner uuid.UUID) (models.AuthorStats, error)
	Insert(ctx context.Context, t *models.Template) (*models.Template, error)
	Update(ctx context.Context, id uuid.UUID, patch models.TemplatePatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementDownloads bumps the counter atomically on the backend side.
	IncrementDownloads(ctx context.Context, id uuid.UUID) error
}

// UploadOptions mirrors the object storage upload flags.
type UploadOptions struct {
	ContentType  string
	CacheControl time.Duration
	Upsert       bool
}

// Storage is the object storage collaborator.
type Storage interface {
	Upload(ctx context.Context, bucket Bucket, path string, body []byte, opts UploadOptions) error
	PublicURL(bucket Bucket, path string) string
}

// Backend bundles the collaborators a coordinator needs.
type Backend struct {
	Auth      Auth
	Profiles  Profiles
	Templates Templates
	Storage   Storage
}
