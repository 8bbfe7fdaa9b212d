// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	"github.com/taibuivan/bizcore/internal/platform/mailer"
)

// # Magic-Link Authenticator

const magicLinkSubject = "Your sign-in link"

/*
RequestMagicLink emails a passwordless sign-in link.

Description: Unknown and inactive addresses are a silent no-op so the
response never reveals whether an account exists. Mail delivery failures are
logged and swallowed for the same reason.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - err: Storage or signing failures only
*/
func (service *Service) RequestMagicLink(context context.Context, email string) error {
	logger := ctxutil.GetLogger(context)

	user, err := service.users.FindByEmail(context, normalizeEmail(email))
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil
		}
		return fmt.Errorf("auth_service_magic_link_lookup_failed: %w", err)
	}

	if !user.IsActive {
		return nil
	}

	token, err := service.tokens.GenerateMagicLinkToken(user.ID, user.Email, service.options.MagicLinkTTL)
	if err != nil {
		return fmt.Errorf("auth_service_magic_link_sign_failed: %w", err)
	}

	link, err := magicLinkURL(service.options.MagicLinkURL, token)
	if err != nil {
		return fmt.Errorf("auth_service_magic_link_url_failed: %w", err)
	}

	message := mailer.Message{
		To:      user.Email,
		Subject: magicLinkSubject,
		Body: fmt.Sprintf(
			"Hello %s,\n\nUse the link below to sign in. It expires in %d minutes and works once.\n\n%s\n",
			user.DisplayName, int(service.options.MagicLinkTTL.Minutes()), link,
		),
	}

	if err := service.mailer.Send(context, message); err != nil {
		logger.ErrorContext(context, "magic_link_delivery_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil
	}

	service.metrics.MagicLinkIssued()
	logger.InfoContext(context, "magic_link_issued", slog.String("user_id", user.ID))

	return nil
}

/*
RedeemMagicLink signs a user in with a magic-link token.

Description: Verifies signature, purpose and expiry, consumes the token id
once, then applies the same lockout and inactive gates as password login.
The result has the same shape as a password login.

Parameters:
  - context: context.Context
  - token: string
  - client: ClientInfo

Returns:
  - *SessionResult: Composed session
  - err: INVALID_MAGIC_LINK, ACCOUNT_LOCKED, INVALID_CREDENTIALS or internal failures
*/
func (service *Service) RedeemMagicLink(context context.Context, token string, client ClientInfo) (*SessionResult, error) {
	claims, err := service.tokens.VerifyMagicLinkToken(token)
	if err != nil {
		return nil, apperr.InvalidMagicLink()
	}

	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, apperr.InvalidMagicLink()
	}

	consumed, err := service.ledger.Consume(context, claims.ID, claims.ExpiresAt.Sub(service.now()))
	if err != nil {
		return nil, fmt.Errorf("auth_service_magic_link_consume_failed: %w", err)
	}
	if !consumed {
		return nil, apperr.InvalidMagicLink()
	}

	user, err := service.users.FindByID(context, claims.UserID)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil, apperr.InvalidMagicLink()
		}
		return nil, fmt.Errorf("auth_service_magic_link_user_failed: %w", err)
	}

	// The address the link was sent to must still be the account's address
	if normalizeEmail(claims.Email) != normalizeEmail(user.Email) {
		return nil, apperr.InvalidMagicLink()
	}

	credential, err := service.credentials.FindByUser(context, user.ID, ProviderLocal)
	if err != nil {
		return nil, fmt.Errorf("auth_service_magic_link_credential_failed: %w", err)
	}

	if err := service.admit(context, user, credential, client); err != nil {
		return nil, err
	}

	if err := service.recordSuccess(context, user, credential, client, ReasonMagicLink); err != nil {
		return nil, err
	}

	return service.startSession(context, user, credential, client)
}

// magicLinkURL appends the token to the callback as ?token=.
func magicLinkURL(base, token string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	query := parsed.Query()
	query.Set("token", token)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
