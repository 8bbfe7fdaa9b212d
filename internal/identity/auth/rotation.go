// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	"github.com/taibuivan/bizcore/internal/platform/sec"
)

// # Refresh Rotation & Family Revocation

// Refresh outcomes, used as metric labels.
const (
	refreshRotated  = "rotated"
	refreshNotFound = "not_found"
	refreshReused   = "reused"
	refreshExpired  = "expired"
	refreshRejected = "rejected"
)

/*
Refresh exchanges a refresh secret for a new token pair in the same family.

Description: A refresh secret is single-use. Presenting a secret that is
revoked or expired revokes whatever is still active in its family before
failing, so a stolen secret yields at most one successful use. Every failure
collapses into INVALID_REFRESH_TOKEN.

Parameters:
  - context: context.Context
  - refreshToken: string (raw secret)
  - client: ClientInfo

Returns:
  - *SessionResult: Rotated session
  - err: INVALID_REFRESH_TOKEN or internal failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string, client ClientInfo) (*SessionResult, error) {
	if refreshToken == "" {
		service.metrics.Refresh(refreshNotFound)
		return nil, apperr.InvalidRefreshToken()
	}

	current, err := service.sessions.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			service.metrics.Refresh(refreshNotFound)
			return nil, apperr.InvalidRefreshToken()
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	if !current.Usable(service.now()) {
		return nil, service.contain(context, current)
	}

	user, err := service.users.FindByID(context, current.UserID)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			service.metrics.Refresh(refreshRejected)
			return nil, apperr.InvalidRefreshToken()
		}
		return nil, fmt.Errorf("auth_service_refresh_user_failed: %w", err)
	}

	if !user.IsActive {
		service.metrics.Refresh(refreshRejected)
		return nil, apperr.InvalidRefreshToken()
	}

	credential, err := service.credentials.FindByUser(context, user.ID, ProviderLocal)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_credential_failed: %w", err)
	}

	pair, err := service.mint(user, client, current.FamilyID)
	if err != nil {
		return nil, err
	}

	if err := service.sessions.Rotate(context, current.ID, pair.session, service.now()); err != nil {
		if errors.Is(err, ErrSessionNotActive) {
			// A concurrent request rotated or revoked this row first
			current.IsRevoked = true
			current.RevokedReason = RevokeRotated
			return nil, service.contain(context, current)
		}
		return nil, fmt.Errorf("auth_service_refresh_rotate_failed: %w", err)
	}

	if err := service.users.TouchLastAccess(context, user.ID, service.now()); err != nil {
		return nil, fmt.Errorf("auth_service_touch_last_access_failed: %w", err)
	}

	service.metrics.Refresh(refreshRotated)
	return service.compose(context, user, pair, credential.PasswordExpired)
}

/*
contain revokes the still-active remainder of a family after an unusable
secret was presented, and returns INVALID_REFRESH_TOKEN.

Description: A rotated-out secret is the canonical theft signal and is
recorded as reuse. An expired secret closes its family with reason "expired".
Secrets revoked by logout, reuse containment or an administrator find no
active siblings, so the cascade never repeats.
*/
func (service *Service) contain(context context.Context, session *RefreshSession) error {
	reason := RevokeExpired
	outcome := refreshExpired
	if session.IsRevoked {
		reason = RevokeReuseDetected
		outcome = refreshReused
	}

	revoked, err := service.sessions.RevokeFamily(context, session.FamilyID, reason, service.now())
	if err != nil {
		return fmt.Errorf("auth_service_revoke_family_failed: %w", err)
	}

	service.metrics.Refresh(outcome)

	if revoked > 0 && session.RevokedReason == RevokeRotated {
		service.metrics.ReuseDetected()
		ctxutil.GetLogger(context).WarnContext(context, "refresh_token_reuse_detected",
			slog.String("user_id", session.UserID),
			slog.String("family_id", session.FamilyID),
			slog.Int64("sessions_revoked", revoked),
		)
	}

	return apperr.InvalidRefreshToken()
}

/*
Logout revokes the entire family of a refresh secret.

Description: Idempotent. Unknown, empty or already revoked secrets succeed
silently.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - err: Storage failures only
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	session, err := service.sessions.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil
		}
		return fmt.Errorf("auth_service_logout_lookup_failed: %w", err)
	}

	revoked, err := service.sessions.RevokeFamily(context, session.FamilyID, RevokeLogout, service.now())
	if err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "session_family_logged_out",
		slog.String("user_id", session.UserID),
		slog.Int64("sessions_revoked", revoked),
	)

	return nil
}
