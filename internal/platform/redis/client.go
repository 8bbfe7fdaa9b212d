// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package redis connects the API to the Redis instance that holds volatile
// auth state: single-use magic-link markers that expire with their tokens.
// Nothing here is a source of truth; losing the data only makes unredeemed
// links fail.
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pingTimeout = 2 * time.Second

	// Ledger writes are single SETNX calls; a small pool is plenty.
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 3 * time.Second
	defaultIOTimeout    = 2 * time.Second
)

// NewClient parses redisURL and pings the server once.
//
// Pool and timeout settings given as URL query parameters (pool_size,
// dial_timeout, read_timeout, ...) win over the defaults above.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	applyDefaults(options)

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
	)
	return client, nil
}

func applyDefaults(options *redis.Options) {
	if options.PoolSize == 0 {
		options.PoolSize = defaultPoolSize
	}
	if options.MinIdleConns == 0 {
		options.MinIdleConns = defaultMinIdleConns
	}
	if options.DialTimeout == 0 {
		options.DialTimeout = defaultDialTimeout
	}
	if options.ReadTimeout == 0 {
		options.ReadTimeout = defaultIOTimeout
	}
	if options.WriteTimeout == 0 {
		options.WriteTimeout = defaultIOTimeout
	}
}

// Ping reports whether the server answers within pingTimeout. It backs the
// readiness check.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}
