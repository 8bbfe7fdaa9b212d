// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/tenancy"
	"github.com/taibuivan/bizcore/pkg/slice"
	"github.com/taibuivan/bizcore/pkg/uuid"
)

// # Session Assembly

// issuedPair is a freshly minted access token and refresh secret, with the
// session row that will carry the secret's hash.
type issuedPair struct {
	accessToken  string
	refreshToken string
	session      *RefreshSession
}

// mint creates a token pair bound to familyID. Nothing is persisted.
func (service *Service) mint(user *User, client ClientInfo, familyID string) (*issuedPair, error) {
	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.Email, user.DisplayName, service.options.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	now := service.now()
	session := &RefreshSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		FamilyID:  familyID,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		ExpiresAt: now.Add(service.options.RefreshTokenTTL),
		CreatedAt: now,
	}

	return &issuedPair{accessToken: accessToken, refreshToken: refreshToken, session: session}, nil
}

/*
startSession opens a new session family for an authenticated user.

Description: Shared by registration, password login and magic-link login.

Parameters:
  - context: context.Context
  - user: *User
  - credential: *Credential (source of the password-expired flag)
  - client: ClientInfo

Returns:
  - *SessionResult: Composed session
  - err: Signing or storage failures
*/
func (service *Service) startSession(context context.Context, user *User, credential *Credential, client ClientInfo) (*SessionResult, error) {
	pair, err := service.mint(user, client, uuid.New())
	if err != nil {
		return nil, err
	}

	if err := service.sessions.Create(context, pair.session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return service.compose(context, user, pair, credential.PasswordExpired)
}

// compose builds the result returned to every authentication path.
func (service *Service) compose(context context.Context, user *User, pair *issuedPair, passwordExpired bool) (*SessionResult, error) {
	memberships, err := service.membershipSummaries(context, user.ID)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		AccessToken:           pair.accessToken,
		RefreshToken:          pair.refreshToken,
		TokenType:             TokenType,
		ExpiresIn:             int64(service.options.AccessTokenTTL / time.Second),
		RefreshTokenExpiresAt: pair.session.ExpiresAt,
		User: UserSummary{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		},
		Memberships:     memberships,
		PasswordExpired: passwordExpired,
	}, nil
}

// membershipSummaries reads the user's active memberships. Never nil.
func (service *Service) membershipSummaries(context context.Context, userID string) ([]MembershipSummary, error) {
	memberships, err := service.tenancy.ActiveMemberships(context, userID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_memberships_failed: %w", err)
	}

	summaries := slice.Map(memberships, func(membership *tenancy.Membership) MembershipSummary {
		return MembershipSummary{
			OrganizationID:   membership.OrganizationID,
			OrganizationName: membership.OrganizationName,
			Role:             membership.Role,
		}
	})

	if summaries == nil {
		summaries = []MembershipSummary{}
	}
	return summaries, nil
}
