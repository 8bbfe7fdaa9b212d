// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizcore/internal/identity/auth"
	"github.com/taibuivan/bizcore/internal/platform/constants"
)

func newRedisLedger(t *testing.T) (*auth.RedisMagicLinkLedger, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewMagicLinkLedger(client), server
}

/*
TestRedisLedger_ConsumeOnce verifies only the first redemption of a jti wins.
*/
func TestRedisLedger_ConsumeOnce(t *testing.T) {
	ledger, server := newRedisLedger(t)
	ctx := context.Background()

	first, err := ledger.Consume(ctx, "jti-1", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := ledger.Consume(ctx, "jti-1", 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	other, err := ledger.Consume(ctx, "jti-2", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, other)

	assert.True(t, server.Exists(constants.RedisPrefixMagicLink+"jti-1"))
	assert.Equal(t, 10*time.Minute, server.TTL(constants.RedisPrefixMagicLink+"jti-1"))
}

/*
TestRedisLedger_KeyExpires verifies the key lives only as long as the token.
*/
func TestRedisLedger_KeyExpires(t *testing.T) {
	ledger, server := newRedisLedger(t)
	ctx := context.Background()

	_, err := ledger.Consume(ctx, "jti-1", time.Minute)
	require.NoError(t, err)

	server.FastForward(2 * time.Minute)
	assert.False(t, server.Exists(constants.RedisPrefixMagicLink+"jti-1"))
}

/*
TestRedisLedger_NonPositiveTTL refuses tokens that are already expired.
*/
func TestRedisLedger_NonPositiveTTL(t *testing.T) {
	ledger, server := newRedisLedger(t)

	consumed, err := ledger.Consume(context.Background(), "jti-1", 0)
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Empty(t, server.Keys())
}

/*
TestRedisLedger_Unavailable surfaces connection failures.
*/
func TestRedisLedger_Unavailable(t *testing.T) {
	ledger, server := newRedisLedger(t)
	server.Close()

	_, err := ledger.Consume(context.Background(), "jti-1", time.Minute)
	require.Error(t, err)
}
