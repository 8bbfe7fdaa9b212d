// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil reads and writes the per-request values named in ctxkey.
// Getters return the zero value when the owning middleware did not run.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/bizcore/internal/platform/ctxkey"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/platform/tenant"
)

func value[T any](ctx context.Context, key any) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

func GetRequestID(ctx context.Context) string {
	id, _ := value[string](ctx, ctxkey.KeyRequestID)
	return id
}

// WithClientIP stores the caller address resolved by middleware.ClientIP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyClientIP, ip)
}

func GetClientIP(ctx context.Context) string {
	ip, _ := value[string](ctx, ctxkey.KeyClientIP)
	return ip
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger returns the request logger, or [slog.Default] outside a request.
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := value[*slog.Logger](ctx, ctxkey.KeyLogger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithAuthUser stores the claims of a verified access token.
func WithAuthUser(ctx context.Context, user *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, user)
}

// GetAuthUser returns the verified claims, or nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, _ := value[*sec.AuthClaims](ctx, ctxkey.KeyUser)
	return claims
}

// WithAuthFailure records why a presented bearer token was rejected.
func WithAuthFailure(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAuthFailure, err)
}

// GetAuthFailure returns the error recorded by [WithAuthFailure], or nil.
func GetAuthFailure(ctx context.Context) error {
	err, _ := value[error](ctx, ctxkey.KeyAuthFailure)
	return err
}

func WithScope(ctx context.Context, scope tenant.Scope) context.Context {
	return context.WithValue(ctx, ctxkey.KeyScope, scope)
}

// GetScope reports false when no organization was resolved for the request.
func GetScope(ctx context.Context) (tenant.Scope, bool) {
	return value[tenant.Scope](ctx, ctxkey.KeyScope)
}
