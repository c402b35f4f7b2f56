// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked-token:"

// ValkeyRevocations stores revoked token ids in Valkey with a TTL matching
// the token's remaining lifetime.
type ValkeyRevocations struct {
	client *redis.Client
}

// NewValkeyRevocations creates a revocation list on client.
func NewValkeyRevocations(client *redis.Client) *ValkeyRevocations {
	return &ValkeyRevocations{client: client}
}

// Revoke records tokenID as revoked until the given time.
func (v *ValkeyRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := v.client.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Revoked reports whether tokenID was revoked.
func (v *ValkeyRevocations) Revoked(ctx context.Context, tokenID string) (bool, error) {
	err := v.client.Get(ctx, revokedPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}
