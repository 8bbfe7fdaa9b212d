// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential and session lifecycle engine.

It issues, rotates and revokes refresh sessions, enforces brute-force lockout,
authenticates through signed magic links, and assembles the session result that
every other subsystem consumes.

# Architecture

  - Entities: User, Credential, RefreshSession and LoginAttempt.
  - Repositories: interfaces implemented on PostgreSQL (durable state) and
    Redis (magic-link redemption ledger).
  - Policies: lockout, refresh rotation with family revocation, magic link.
  - Session Assembly: the single return path shared by registration, login,
    refresh and magic-link login.

Correctness under concurrent requests relies on store-level atomic writes
(conditional updates keyed by primary key), never on in-process locks.
*/
package auth

import (
	"time"

	"github.com/taibuivan/bizcore/internal/platform/sec"
)

// # Domain Entities

// User is an identity record. Users are deactivated, never hard-deleted.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	IsActive     bool       `json:"is_active"`
	LastAccessAt *time.Time `json:"last_access_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Credential is the local password credential of a user.
//
// At most one credential exists per (user, provider).
type Credential struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Provider          string     `json:"provider"`
	PasswordHash      string     `json:"-"`
	IsLocked          bool       `json:"is_locked"`
	FailedAttempts    int        `json:"failed_attempts"`
	LockedAt          *time.Time `json:"locked_at,omitempty"`
	PasswordExpired   bool       `json:"password_expired"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// RefreshSession is one issued refresh secret. Only its hash is stored.
type RefreshSession struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	TokenHash     string       `json:"-"`
	FamilyID      string       `json:"family_id"` // Correlates every rotation of one login event
	UserAgent     string       `json:"user_agent"`
	IPAddress     string       `json:"ip_address"`
	ExpiresAt     time.Time    `json:"expires_at"`
	IsRevoked     bool         `json:"is_revoked"`
	RevokedReason RevokeReason `json:"revoked_reason,omitempty"`
	RevokedAt     *time.Time   `json:"revoked_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// IsExpired reports whether the session expiry has passed at now.
func (session *RefreshSession) IsExpired(now time.Time) bool {
	return !now.Before(session.ExpiresAt)
}

// Usable reports whether the session may still be rotated.
func (session *RefreshSession) Usable(now time.Time) bool {
	return !session.IsRevoked && !session.IsExpired(now)
}

// LoginAttempt is an append-only audit row.
type LoginAttempt struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id,omitempty"`
	Email     string        `json:"email"`
	IsSuccess bool          `json:"is_success"`
	IPAddress string        `json:"ip_address"`
	UserAgent string        `json:"user_agent"`
	Reason    AttemptReason `json:"reason"`
	CreatedAt time.Time     `json:"created_at"`
}

// # Reason Codes

// AttemptReason classifies a login attempt in the audit log.
type AttemptReason string

const (
	ReasonSuccess         AttemptReason = "SUCCESS"
	ReasonMagicLink       AttemptReason = "MAGIC_LINK"
	ReasonAccountLocked   AttemptReason = "ACCOUNT_LOCKED"
	ReasonUserInactive    AttemptReason = "USER_INACTIVE"
	ReasonInvalidPassword AttemptReason = "INVALID_PASSWORD"

	// ReasonUnknownEmail is counted in metrics only; there is no user to audit against.
	ReasonUnknownEmail AttemptReason = "UNKNOWN_EMAIL"
)

// Successful reports whether the reason denotes an authenticated attempt.
func (reason AttemptReason) Successful() bool {
	return reason == ReasonSuccess || reason == ReasonMagicLink
}

// RevokeReason records why a refresh session was revoked. It is forensic only;
// validity is decided by the revoked flag and the expiry.
type RevokeReason string

const (
	RevokeRotated         RevokeReason = "rotated"
	RevokeReuseDetected   RevokeReason = "reuse_detected"
	RevokeLogout          RevokeReason = "logout"
	RevokeExpired         RevokeReason = "expired"
	RevokePasswordChanged RevokeReason = "password_changed"
	RevokeAdmin           RevokeReason = "admin"
)

// # Session Result

// ClientInfo identifies the device presenting a credential.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// UserSummary is the public projection of a [User] inside a session result.
type UserSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// MembershipSummary is one organization the user may act in.
type MembershipSummary struct {
	OrganizationID   string   `json:"organization_id"`
	OrganizationName string   `json:"organization_name"`
	Role             sec.Role `json:"role"`
}

// SessionResult is the composed outcome of every successful authentication.
type SessionResult struct {
	AccessToken           string              `json:"access_token"`
	RefreshToken          string              `json:"refresh_token"`
	TokenType             string              `json:"token_type"`
	ExpiresIn             int64               `json:"expires_in"` // Access-token lifetime in seconds
	RefreshTokenExpiresAt time.Time           `json:"refresh_token_expires_at"`
	User                  UserSummary         `json:"user"`
	Memberships           []MembershipSummary `json:"memberships"`
	PasswordExpired       bool                `json:"password_expired"`
}

// Identity is the current user with their memberships.
type Identity struct {
	User        *User               `json:"user"`
	Memberships []MembershipSummary `json:"memberships"`
}

// # Field Identifiers

// Field names for validation and payload mapping in the authentication domain.
const (
	FieldName             = "name"
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldOrganizationName = "organization_name"
	FieldToken            = "token"
	FieldRefreshToken     = "refresh_token"
	FieldCurrentPassword  = "current_password"
	FieldNewPassword      = "new_password"
	FieldMessage          = "message"
)
