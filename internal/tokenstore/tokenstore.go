// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tokenstore persists identity tokens in Valkey, keyed by the
// browser's signed client cookie, so a browser stays signed in across
// coordinator evictions and server restarts.
package tokenstore

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the client cookie sent to the browser.
	CookieName = "dalley_client"

	// DefaultTTL is how long a token survives in Valkey when it carries no
	// expiry of its own.
	DefaultTTL = 7 * 24 * time.Hour

	// keyPrefix namespaces token keys in Valkey to avoid collisions.
	keyPrefix = "client-token:"

	// idLength is the byte length of the random client ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Store keeps one token per client id in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a token store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: DefaultTTL, now: time.Now}
}

// Load returns the persisted token for clientID, or "" when none exists.
func (s *Store) Load(ctx context.Context, clientID string) (string, error) {
	token, err := s.client.Get(ctx, keyPrefix+clientID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("token load: %w", err)
	}
	return token, nil
}

// Save stores token until expires, capped at the store TTL. An already
// expired token is deleted instead.
func (s *Store) Save(ctx context.Context, clientID, token string, expires time.Time) error {
	ttl := s.ttl
	if !expires.IsZero() {
		left := expires.Sub(s.now())
		if left <= 0 {
			return s.Delete(ctx, clientID)
		}
		if left < ttl {
			ttl = left
		}
	}
	if err := s.client.Set(ctx, keyPrefix+clientID, token, ttl).Err(); err != nil {
		return fmt.Errorf("token save: %w", err)
	}
	return nil
}

// Delete removes the persisted token for clientID.
func (s *Store) Delete(ctx context.Context, clientID string) error {
	if err := s.client.Del(ctx, keyPrefix+clientID).Err(); err != nil {
		return fmt.Errorf("token delete: %w", err)
	}
	return nil
}

// Cookies issues client cookies and verifies the ones browsers send back.
// A cookie carries the client id and an HMAC-SHA256 of it, so only ids
// this server handed out are accepted.
type Cookies struct {
	key    []byte
	secure bool
}

// NewCookies derives the signing key from secret.
func NewCookies(secret string, secure bool) *Cookies {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("dalley client cookie"))
	return &Cookies{key: mac.Sum(nil), secure: secure}
}

// ClientID returns the verified client id carried by the request cookie.
func (c *Cookies) ClientID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return c.verify(cookie.Value)
}

// Issue generates a fresh client id and sets it, signed, as the client
// cookie.
func (c *Cookies) Issue(w http.ResponseWriter) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("client id: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    c.Value(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(DefaultTTL.Seconds()),
	})
	return id, nil
}

// Value returns the cookie value for id.
func (c *Cookies) Value(id string) string {
	return id + "." + hex.EncodeToString(c.sign(id))
}

func (c *Cookies) sign(id string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(id))
	return mac.Sum(nil)
}

func (c *Cookies) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || !validID(id) {
		return "", false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if subtle.ConstantTimeCompare(got, c.sign(id)) != 1 {
		return "", false
	}
	return id, true
}

// generateID creates a cryptographically random hex string.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func validID(id string) bool {
	if len(id) != idLength*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
