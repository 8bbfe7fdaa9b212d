// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/bizcore/internal/platform/constants"
)

// RedisMagicLinkLedger implements [MagicLinkLedger] using Redis.
type RedisMagicLinkLedger struct {
	client *redis.Client
}

// NewMagicLinkLedger creates a new Redis-backed [MagicLinkLedger].
func NewMagicLinkLedger(client *redis.Client) *RedisMagicLinkLedger {
	return &RedisMagicLinkLedger{client: client}
}

/*
Consume records a redeemed magic-link jti.

Description: SET NX makes the first redemption win. The key expires together
with the token, after which the signed expiry alone rejects it.

Parameters:
  - context: context.Context
  - jti: string
  - ttl: time.Duration

Returns:
  - bool: true if this call consumed the jti
  - error: Execution errors
*/
func (ledger *RedisMagicLinkLedger) Consume(context context.Context, jti string, ttl time.Duration) (bool, error) {

	// A non-positive TTL means the token is already past its expiry
	if ttl <= 0 {
		return false, nil
	}

	key := constants.RedisPrefixMagicLink + jti

	consumed, err := ledger.client.SetNX(context, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis_magic_link_consume_failed: %w", err)
	}

	return consumed, nil
}
