// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// DefaultAccessTokenTTL keeps leaked bearer tokens short-lived.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the lifetime of one refresh secret.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour

	// DefaultMagicLinkTTL is the validity window of an emailed login link.
	DefaultMagicLinkTTL = 15 * time.Minute

	// RefreshTokenLength is the byte length of the random refresh secret.
	RefreshTokenLength = 32

	// LockoutThreshold is the failed-attempt count that locks a credential.
	LockoutThreshold = 5

	// MinPasswordLength applies to registration and password changes.
	MinPasswordLength = 8

	// TokenType is the scheme clients use in the Authorization header.
	TokenType = "Bearer"
)

// # Providers

const (
	// ProviderLocal is the only implemented credential provider.
	ProviderLocal = "local"
)
