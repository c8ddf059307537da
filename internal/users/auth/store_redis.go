// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saparov/amanat/internal/platform/constants"
)

// RedisRevokedTokenRepository implements RevokedTokenRepository using Redis.
//
// # Why Redis?
//
// A revoked jti only matters until the token's natural expiry — after that
// the expiry check alone rejects it. Setting the Redis key TTL to the
// remaining lifetime makes the revocation list garbage-collect itself, so no
// cleanup job is ever needed.
type RedisRevokedTokenRepository struct {
	client *redis.Client
}

// NewRevokedTokenRepository creates a new Redis-backed RevokedTokenRepository.
func NewRevokedTokenRepository(client *redis.Client) *RedisRevokedTokenRepository {
	return &RedisRevokedTokenRepository{client: client}
}

/*
Record marks the unique id as revoked until its natural expiry.

Description: A token already past its expiry is skipped entirely — the expiry
check rejects it anyway, and Redis would refuse a non-positive TTL.

Parameters:
  - context: context.Context
  - uniqueID: string (the JWT jti claim)
  - expiresAt: time.Time (the token's natural expiry)

Returns:
  - error: Storage failures
*/
func (repository *RedisRevokedTokenRepository) Record(context context.Context, uniqueID string, expiresAt time.Time) error {

	// Skip tokens that are already dead
	timeToLive := time.Until(expiresAt)
	if timeToLive <= 0 {
		return nil
	}

	// Use constants for key prefix
	key := constants.RedisPrefixRevokedToken + uniqueID

	// SET is naturally idempotent: re-revoking just refreshes the same key
	if err := repository.client.Set(context, key, "1", timeToLive).Err(); err != nil {
		return fmt.Errorf("redis_revoked_token_record_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
IsRevoked reports whether the unique id is on the revocation list.

Description: Key presence is the whole signal; the stored value is irrelevant.

Parameters:
  - context: context.Context
  - uniqueID: string

Returns:
  - bool: true if the id is revoked
  - error: Connectivity errors
*/
func (repository *RedisRevokedTokenRepository) IsRevoked(context context.Context, uniqueID string) (bool, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixRevokedToken + uniqueID

	// Check the key existence
	count, err := repository.client.Exists(context, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revoked_token_exists_failed: %w", err)
	}

	// Return the result
	return count > 0, nil
}
