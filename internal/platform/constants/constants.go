// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package constants holds the fixed values shared across the HTTP layer, the
// stores and the commands: server timing, limiter rates, header and cookie
// names, and the JSON keys of the health and error envelopes.
package constants

import "time"

const (
	AppName    = "bizcore-api"
	AppVersion = "0.1.0-dev"
)

// HTTP server timing.
const (
	DefaultReadHeaderTimeout = 2 * time.Second
	DefaultReadTimeout       = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 2 * time.Minute

	// GlobalRequestTimeout bounds a whole request, and every SQL statement run
	// on its behalf.
	GlobalRequestTimeout = 30 * time.Second
	ShutdownTimeout      = 30 * time.Second
)

// Per-client token buckets. The credential bucket guards login, password
// reset and magic-link issuance on top of the account lockout.
const (
	DefaultRateLimitRPS      = 100.0
	DefaultRateLimitBurst    = 150
	CredentialRateLimitRPS   = 1.0
	CredentialRateLimitBurst = 10

	RateLimitCleanupInterval = time.Minute
	RateLimitClientTTL       = 3 * time.Minute // Idle buckets older than this are evicted
)

const (
	HeaderAuthorization = "Authorization"
	HeaderOrigin        = "Origin"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXOrganization = "X-Organization-Id"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXTokenExpired = "X-Token-Expired"
)

// The refresh cookie is only ever sent back to the auth routes.
const (
	RefreshTokenCookieName = "refresh_token"
	RefreshTokenCookiePath = "/api/v1/auth"
)

// Health envelope keys.
const (
	FieldApp     = "app"
	FieldChecks  = "checks"
	FieldStatus  = "status"
	FieldVersion = "version"
)

const RedisPrefixMagicLink = "auth:magic_link:"
