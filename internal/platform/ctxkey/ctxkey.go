// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey names the per-request values the middleware chain stores on
// the context. Read and write them through ctxutil, never directly.
package ctxkey

// key is unexported so no other package can build a colliding key.
type key string

const (
	KeyRequestID   key = "request_id"   // string
	KeyLogger      key = "logger"       // *slog.Logger
	KeyClientIP    key = "client_ip"    // string, after trusted-proxy resolution
	KeyUser        key = "user"         // *sec.AuthClaims of a verified bearer
	KeyAuthFailure key = "auth_failure" // error for a rejected bearer
	KeyScope       key = "scope"        // tenant.Scope
)
