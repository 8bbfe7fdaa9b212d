// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	"github.com/taibuivan/bizcore/pkg/uuid"
)

// # Lockout Policy

/*
admit gates an authentication attempt on account state.

Description: The lockout check runs first, then the inactive check. Neither
outcome touches the failed-attempt counter. Both are audited.

Parameters:
  - context: context.Context
  - user: *User
  - credential: *Credential
  - client: ClientInfo

Returns:
  - err: ACCOUNT_LOCKED, INVALID_CREDENTIALS (inactive) or audit failures
*/
func (service *Service) admit(context context.Context, user *User, credential *Credential, client ClientInfo) error {
	if credential.IsLocked {
		if err := service.audit(context, user, client, ReasonAccountLocked); err != nil {
			return err
		}
		return apperr.AccountLocked()
	}

	if !user.IsActive {
		if err := service.audit(context, user, client, ReasonUserInactive); err != nil {
			return err
		}
		return apperr.InvalidCredentials()
	}

	return nil
}

/*
recordFailure counts a wrong password and locks at the threshold.

Description: The increment and the threshold comparison happen in one store
write. The attempt that reaches the threshold still reports invalid
credentials; the lock is revealed from the next attempt on.

Returns:
  - err: INVALID_CREDENTIALS on the normal path, or storage failures
*/
func (service *Service) recordFailure(context context.Context, user *User, credential *Credential, client ClientInfo) error {
	attempts, locked, err := service.credentials.RecordFailure(context, credential.ID, LockoutThreshold, service.now())
	if err != nil {
		return fmt.Errorf("auth_service_record_failure_failed: %w", err)
	}

	if err := service.audit(context, user, client, ReasonInvalidPassword); err != nil {
		return err
	}

	if locked && attempts == LockoutThreshold {
		service.metrics.Locked()
		ctxutil.GetLogger(context).WarnContext(context, "account_locked",
			slog.String("user_id", user.ID),
			slog.Int("failed_attempts", attempts),
			slog.String("ip", client.IPAddress),
		)
	}

	return apperr.InvalidCredentials()
}

// recordSuccess resets the counter (the lock flag is untouched) and audits the attempt.
func (service *Service) recordSuccess(context context.Context, user *User, credential *Credential, client ClientInfo, reason AttemptReason) error {
	if credential.FailedAttempts > 0 {
		if err := service.credentials.ResetFailures(context, credential.ID); err != nil {
			return fmt.Errorf("auth_service_reset_failures_failed: %w", err)
		}
		credential.FailedAttempts = 0
	}

	if err := service.audit(context, user, client, reason); err != nil {
		return err
	}

	if err := service.users.TouchLastAccess(context, user.ID, service.now()); err != nil {
		return fmt.Errorf("auth_service_touch_last_access_failed: %w", err)
	}

	return nil
}

// audit appends one login-attempt row and counts it.
func (service *Service) audit(context context.Context, user *User, client ClientInfo, reason AttemptReason) error {
	service.metrics.LoginAttempt(string(reason))

	attempt := &LoginAttempt{
		ID:        uuid.New(),
		UserID:    user.ID,
		Email:     user.Email,
		IsSuccess: reason.Successful(),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Reason:    reason,
		CreatedAt: service.now(),
	}

	if err := service.attempts.Append(context, attempt); err != nil {
		return fmt.Errorf("auth_service_audit_failed: %w", err)
	}

	if !attempt.IsSuccess {
		ctxutil.GetLogger(context).InfoContext(context, "login_failed",
			slog.String("user_id", user.ID),
			slog.String("reason", string(reason)),
			slog.String("ip", client.IPAddress),
		)
	}

	return nil
}
