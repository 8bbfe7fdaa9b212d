// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/taibuivan/bizcore/internal/platform/redis"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

/*
TestNewClient applies defaults unless the URL overrides them.
*/
func TestNewClient(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := redisstore.NewClient(context.Background(), "redis://"+server.Addr()+"/0", discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 10, client.Options().PoolSize)
	require.NoError(t, redisstore.Ping(context.Background(), client))

	tuned, err := redisstore.NewClient(context.Background(), "redis://"+server.Addr()+"/0?pool_size=3", discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tuned.Close() })
	assert.Equal(t, 3, tuned.Options().PoolSize)
}

/*
TestNewClient_Unreachable fails fast when the server is down.
*/
func TestNewClient_Unreachable(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	_, err := redisstore.NewClient(context.Background(), "redis://"+addr, discard)
	assert.Error(t, err)

	_, err = redisstore.NewClient(context.Background(), "not a url", discard)
	assert.Error(t, err)
}
