// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/platform/tenant"
	"github.com/taibuivan/bizcore/pkg/pagination"
)

// # Administration

// authorizeTarget ensures the acting administrator may manage userID.
//
// Accounts are global, so the target must belong to the scope's organization
// and to no other one, and must hold a role strictly below the actor's.
func (service *Service) authorizeTarget(context context.Context, scope tenant.Scope, userID string) error {
	if scope.IsZero() || !scope.Allows(sec.RoleAdmin) {
		return apperr.Forbidden("Insufficient permissions")
	}

	memberships, err := service.tenancy.ActiveMemberships(context, userID)
	if err != nil {
		return fmt.Errorf("auth_service_admin_membership_failed: %w", err)
	}

	var (
		targetRole sec.Role
		found      bool
	)
	for _, membership := range memberships {
		if membership.OrganizationID == scope.OrganizationID {
			targetRole, found = membership.Role, true
		}
	}

	if !found {
		return apperr.NotFound("User")
	}

	if targetRole.AtLeast(scope.Role) {
		return apperr.Forbidden("Cannot manage a member with an equal or higher role")
	}

	if len(memberships) > 1 {
		return apperr.Forbidden("User belongs to other organizations")
	}

	return nil
}

/*
Unlock clears a user's lockout state.

Parameters:
  - context: context.Context
  - scope: tenant.Scope (acting administrator)
  - userID: string

Returns:
  - err: Forbidden, NotFound or storage failures
*/
func (service *Service) Unlock(context context.Context, scope tenant.Scope, userID string) error {
	if err := service.authorizeTarget(context, scope, userID); err != nil {
		return err
	}

	if err := service.credentials.Unlock(context, userID, ProviderLocal); err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_unlocked",
		slog.String("user_id", userID),
		slog.String("by", scope.UserID),
	)
	return nil
}

/*
AdminResetPassword sets a new password chosen by an administrator.

Description: The credential is flagged password-expired so the next login
surfaces the flag, and every session of the user is revoked.

Parameters:
  - context: context.Context
  - scope: tenant.Scope
  - userID: string
  - newPassword: string

Returns:
  - err: Forbidden, NotFound or storage failures
*/
func (service *Service) AdminResetPassword(context context.Context, scope tenant.Scope, userID, newPassword string) error {
	if err := service.authorizeTarget(context, scope, userID); err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_admin_reset_hash_failed: %w", err)
	}

	now := service.now()
	if err := service.credentials.UpdatePassword(context, userID, ProviderLocal, hashedPassword, true, now); err != nil {
		return err
	}

	if _, err := service.sessions.RevokeAllForUser(context, userID, RevokeAdmin, now); err != nil {
		return fmt.Errorf("auth_service_admin_reset_revoke_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "password_reset_by_admin",
		slog.String("user_id", userID),
		slog.String("by", scope.UserID),
	)
	return nil
}

/*
SetActive activates or deactivates a user. Deactivation revokes every session.

Parameters:
  - context: context.Context
  - scope: tenant.Scope
  - userID: string
  - active: bool

Returns:
  - err: Forbidden, NotFound or storage failures
*/
func (service *Service) SetActive(context context.Context, scope tenant.Scope, userID string, active bool) error {
	if !active && userID == scope.UserID {
		return apperr.Unprocessable("Administrators cannot deactivate themselves")
	}

	if err := service.authorizeTarget(context, scope, userID); err != nil {
		return err
	}

	if err := service.users.SetActive(context, userID, active); err != nil {
		return err
	}

	if !active {
		if _, err := service.sessions.RevokeAllForUser(context, userID, RevokeAdmin, service.now()); err != nil {
			return fmt.Errorf("auth_service_deactivate_revoke_failed: %w", err)
		}
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_active_changed",
		slog.String("user_id", userID),
		slog.Bool("active", active),
		slog.String("by", scope.UserID),
	)
	return nil
}

/*
ListLoginAttempts returns a page of a user's audit log.

Parameters:
  - context: context.Context
  - scope: tenant.Scope
  - userID: string
  - params: pagination.Params

Returns:
  - []*LoginAttempt: Newest first
  - int: Total rows
  - err: Forbidden, NotFound or storage failures
*/
func (service *Service) ListLoginAttempts(context context.Context, scope tenant.Scope, userID string, params pagination.Params) ([]*LoginAttempt, int, error) {
	if err := service.authorizeTarget(context, scope, userID); err != nil {
		return nil, 0, err
	}

	attempts, total, err := service.attempts.ListByUser(context, userID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("auth_service_list_attempts_failed: %w", err)
	}

	return attempts, total, nil
}

// # Maintenance

// PruneReport summarizes one garbage-collection run.
type PruneReport struct {
	SessionsDeleted      int64
	LoginAttemptsDeleted int64
}

/*
Prune deletes refresh sessions that expired more than sessionRetention ago and
login attempts older than attemptRetention.

Parameters:
  - context: context.Context
  - sessionRetention: time.Duration
  - attemptRetention: time.Duration

Returns:
  - PruneReport: Deleted row counts
  - err: Storage failures
*/
func (service *Service) Prune(context context.Context, sessionRetention, attemptRetention time.Duration) (PruneReport, error) {
	var report PruneReport
	now := service.now()

	sessions, err := service.sessions.DeleteExpiredBefore(context, now.Add(-sessionRetention))
	if err != nil {
		return report, fmt.Errorf("auth_service_prune_sessions_failed: %w", err)
	}
	report.SessionsDeleted = sessions

	attempts, err := service.attempts.DeleteOlderThan(context, now.Add(-attemptRetention))
	if err != nil {
		return report, fmt.Errorf("auth_service_prune_attempts_failed: %w", err)
	}
	report.LoginAttemptsDeleted = attempts

	return report, nil
}
