// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotActive is returned by [SessionRepository.Rotate] when the
// presented row was revoked or expired between lookup and rotation.
var ErrSessionNotActive = errors.New("auth: refresh session is no longer active")

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email (case-insensitive).

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		CreateWithCredential persists a new user and its local credential in a
		single transaction.

		Parameters:
		  - context: context.Context
		  - user: *User
		  - credential: *Credential

		Returns:
		  - error: apperr.EmailAlreadyExists on a duplicate email, or persistence failures
	*/
	CreateWithCredential(context context.Context, user *User, credential *Credential) error

	// TouchLastAccess stamps the user's last successful authentication.
	TouchLastAccess(context context.Context, userID string, at time.Time) error

	// SetActive flips the active flag.
	SetActive(context context.Context, userID string, active bool) error
}

// # Credential Data Access

// CredentialRepository defines the data access contract for password credentials.
type CredentialRepository interface {

	// FindByUser returns the credential of userID for provider.
	FindByUser(context context.Context, userID, provider string) (*Credential, error)

	/*
		RecordFailure atomically increments the failed-attempt counter and locks
		the credential when the new count reaches threshold.

		Parameters:
		  - context: context.Context
		  - credentialID: string
		  - threshold: int
		  - at: time.Time (lockout timestamp)

		Returns:
		  - int: Counter value after the increment
		  - bool: Whether the credential is locked after the update
		  - error: Persistence failures
	*/
	RecordFailure(context context.Context, credentialID string, threshold int, at time.Time) (int, bool, error)

	// ResetFailures sets the counter back to zero. The lockout flag is untouched.
	ResetFailures(context context.Context, credentialID string) error

	// Unlock clears the lockout flag, the lockout timestamp and the counter together.
	Unlock(context context.Context, userID, provider string) error

	// UpdatePassword stores a new hash and the password-expired flag.
	UpdatePassword(context context.Context, userID, provider, passwordHash string, expired bool, at time.Time) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh sessions.
type SessionRepository interface {

	// Create persists a new refresh session.
	Create(context context.Context, session *RefreshSession) error

	/*
		FindByTokenHash returns the session for a hashed secret in any state
		(active, revoked or expired).

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *RefreshSession: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*RefreshSession, error)

	/*
		Rotate revokes currentID with reason "rotated" and inserts next, as one
		unit. The revoke is conditional on the row still being active.

		Parameters:
		  - context: context.Context
		  - currentID: string
		  - next: *RefreshSession (same family as currentID)
		  - at: time.Time

		Returns:
		  - error: ErrSessionNotActive if another request won the race
	*/
	Rotate(context context.Context, currentID string, next *RefreshSession, at time.Time) error

	// RevokeFamily revokes every still-active session of a family and returns how many rows changed.
	RevokeFamily(context context.Context, familyID string, reason RevokeReason, at time.Time) (int64, error)

	// RevokeAllForUser revokes every still-active session of a user.
	RevokeAllForUser(context context.Context, userID string, reason RevokeReason, at time.Time) (int64, error)

	// RevokeOtherFamilies revokes every still-active session of a user outside keepFamilyID.
	RevokeOtherFamilies(context context.Context, userID, keepFamilyID string, reason RevokeReason, at time.Time) (int64, error)

	// DeleteExpiredBefore physically removes sessions that expired before cutoff.
	DeleteExpiredBefore(context context.Context, cutoff time.Time) (int64, error)
}

// # Audit Data Access

// LoginAttemptRepository defines the data access contract for the login audit log.
type LoginAttemptRepository interface {

	// Append writes one audit row.
	Append(context context.Context, attempt *LoginAttempt) error

	// ListByUser returns a page of a user's attempts, newest first, with the total count.
	ListByUser(context context.Context, userID string, limit, offset int) ([]*LoginAttempt, int, error)

	// DeleteOlderThan removes audit rows created before cutoff.
	DeleteOlderThan(context context.Context, cutoff time.Time) (int64, error)
}

// # Magic-Link Ledger

// MagicLinkLedger records redeemed magic-link token identifiers.
type MagicLinkLedger interface {

	/*
		Consume marks jti as redeemed for ttl.

		Parameters:
		  - context: context.Context
		  - jti: string
		  - ttl: time.Duration (remaining validity of the token)

		Returns:
		  - bool: true the first time jti is consumed, false afterwards
		  - error: Connectivity errors
	*/
	Consume(context context.Context, jti string, ttl time.Duration) (bool, error)
}
