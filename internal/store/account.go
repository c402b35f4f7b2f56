// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for the Dalley
// relations. Each store struct wraps a *sql.DB and exposes typed query
// methods; the profile and template stores satisfy the backend contract.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dalley/internal/models"
)

// AccountStore handles the identity records behind sessions.
type AccountStore struct {
	db *sql.DB
}

// NewAccountStore creates a new AccountStore with the given database connection.
func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// FindByEmail retrieves an account by email address. Returns nil if not found.
func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	a := &models.Account{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, username, created_at
		FROM accounts WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Username, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return a, nil
}

// FindByID retrieves an account by id. Returns nil if not found.
func (s *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	a := &models.Account{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, username, created_at
		FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Username, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return a, nil
}

// Create inserts a new account with a bcrypt-hashed password. A duplicate
// email is reported as a 409 *backend.Error.
func (s *AccountStore) Create(ctx context.Context, email, password, username string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &models.Account{}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (email, password_hash, username)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, username, created_at
	`, email, string(hash), username).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Username, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", reject(err))
	}
	return a, nil
}

// Delete removes an account and, through the foreign keys, its profile
// and templates.
func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the account's stored hash.
func (s *AccountStore) CheckPassword(a *models.Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
