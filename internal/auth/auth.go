// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth issues and validates identity tokens. Tokens are HS256
// JWTs carrying the account id and email; sign-out revokes a token's id
// until it would have expired.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"dalley/internal/apperr"
	"dalley/internal/backend"
	"dalley/internal/models"
)

const (
	// DefaultTTL is the lifetime of an issued token.
	DefaultTTL = 7 * 24 * time.Hour

	// MinPasswordLength is the shortest password accepted at sign-up.
	MinPasswordLength = 6

	issuer = "dalley"
)

// Accounts is the identity storage the service authenticates against.
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, email, password, username string) (*models.Account, error)
	CheckPassword(a *models.Account, password string) bool
}

// Revocations remembers signed-out token ids.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// Claims are the token claims: the registered set plus the identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
}

// Service implements backend.Auth.
type Service struct {
	accounts Accounts
	revoked  Revocations
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a token service. ttl <= 0 means DefaultTTL.
func NewService(accounts Accounts, revoked Revocations, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		accounts: accounts,
		revoked:  revoked,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SignIn checks the credentials and issues a token. Unknown emails and
// wrong passwords are indistinguishable.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	acct, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if acct == nil || !s.accounts.CheckPassword(acct, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return s.issue(acct)
}

// SignUp creates an account and signs it in. metadata["username"] is kept
// on the account for the initial profile.
func (s *Service) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.Session, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, backend.Rejected(http.StatusUnprocessableEntity, "Unable to validate email address: invalid format")
	}
	if len(password) < MinPasswordLength {
		return nil, backend.Rejected(http.StatusUnprocessableEntity,
			"Password should be at least %d characters", MinPasswordLength)
	}

	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if existing != nil {
		return nil, backend.Rejected(http.StatusUnprocessableEntity, "User already registered")
	}

	acct, err := s.accounts.Create(ctx, email, password, metadata["username"])
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return s.issue(acct)
}

// SignOut revokes token. Tokens that do not parse have nothing to revoke.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	until := s.now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revoked.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// CurrentSession validates token. Returns nil, nil for a malformed,
// expired or revoked token.
func (s *Service) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, nil
	}
	revoked, err := s.revoked.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil
	}
	return &models.Session{
		Token:     token,
		UserID:    claims.UserID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) issue(acct *models.Account) (*models.Session, error) {
	jti, err := tokenID()
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	now := s.now()
	expires := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    issuer,
			Subject:   acct.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UserID: acct.ID,
		Email:  acct.Email,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.Session{
		Token:     signed,
		UserID:    acct.ID,
		Email:     acct.Email,
		ExpiresAt: expires.Truncate(time.Second),
	}, nil
}

func (s *Service) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func tokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ backend.Auth = (*Service)(nil)
