// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	"github.com/taibuivan/bizcore/internal/platform/mailer"
	"github.com/taibuivan/bizcore/internal/platform/metrics"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/tenancy"
	"github.com/taibuivan/bizcore/pkg/pointer"
	"github.com/taibuivan/bizcore/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer defines the contract for minting and verifying signed tokens.
type TokenIssuer interface {
	// GenerateAccessToken creates a signed access token for the given user.
	GenerateAccessToken(userID, email, displayName string, timeToLive time.Duration) (string, error)

	// GenerateMagicLinkToken creates a purpose-tagged passwordless login token.
	GenerateMagicLinkToken(userID, email string, timeToLive time.Duration) (string, error)

	// VerifyMagicLinkToken checks signature, expiry and the purpose tag.
	VerifyMagicLinkToken(tokenString string) (*sec.MagicLinkClaims, error)
}

// Tenancy is the read dependency on organization memberships, plus the
// bootstrap used when a user registers with an organization name.
type Tenancy interface {
	ActiveMemberships(context context.Context, userID string) ([]*tenancy.Membership, error)
	Bootstrap(context context.Context, name, userID string) (*tenancy.Membership, error)
}

// Dependencies groups the collaborators of [Service].
type Dependencies struct {
	Users       UserRepository
	Credentials CredentialRepository
	Sessions    SessionRepository
	Attempts    LoginAttemptRepository
	Ledger      MagicLinkLedger
	Tokens      TokenIssuer
	Tenancy     Tenancy
	Mailer      mailer.Sender
	Metrics     *metrics.Auth
}

// Options tunes token lifetimes and the magic-link callback.
type Options struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	MagicLinkTTL    time.Duration
	MagicLinkURL    string

	// Clock overrides time.Now (tests).
	Clock func() time.Time
}

// Service implements the credential and session lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to lockout, rotation or
// magic-link logic must be reviewed by the security team.
type Service struct {
	users       UserRepository
	credentials CredentialRepository
	sessions    SessionRepository
	attempts    LoginAttemptRepository
	ledger      MagicLinkLedger
	tokens      TokenIssuer
	tenancy     Tenancy
	mailer      mailer.Sender
	metrics     *metrics.Auth
	options     Options
}

// NewService constructs a new [Service]. Zero option values fall back to the package defaults.
func NewService(dependencies Dependencies, options Options) *Service {
	if options.AccessTokenTTL <= 0 {
		options.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if options.RefreshTokenTTL <= 0 {
		options.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if options.MagicLinkTTL <= 0 {
		options.MagicLinkTTL = DefaultMagicLinkTTL
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	return &Service{
		users:       dependencies.Users,
		credentials: dependencies.Credentials,
		sessions:    dependencies.Sessions,
		attempts:    dependencies.Attempts,
		ledger:      dependencies.Ledger,
		tokens:      dependencies.Tokens,
		tenancy:     dependencies.Tenancy,
		mailer:      dependencies.Mailer,
		metrics:     dependencies.Metrics,
		options:     options,
	}
}

// AccessTokenTTL returns the configured access-token lifetime.
func (service *Service) AccessTokenTTL() time.Duration {
	return service.options.AccessTokenTTL
}

func (service *Service) now() time.Time {
	return service.options.Clock()
}

// normalizeEmail lowercases and trims an address for lookups and storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new user.
type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	OrganizationName string
	Client           ClientInfo
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Creates the user and its local credential atomically, optionally
bootstraps an owned organization, and returns a full session result so the
client is signed in immediately.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *SessionResult: Composed session
  - err: EMAIL_ALREADY_EXISTS or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*SessionResult, error) {
	email := normalizeEmail(input.Email)

	// Verify email uniqueness. The unique index covers the concurrent case.
	if _, err := service.users.FindByEmail(context, email); err == nil {
		return nil, apperr.EmailAlreadyExists()
	} else if !apperr.HasCode(err, "NOT_FOUND") {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	now := service.now()
	user := &User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: strings.TrimSpace(input.Name),
		IsActive:    true,
		CreatedAt:   now,
	}

	credential := &Credential{
		ID:                uuid.New(),
		UserID:            user.ID,
		Provider:          ProviderLocal,
		PasswordHash:      hashedPassword,
		PasswordChangedAt: pointer.To(now),
	}

	if err := service.users.CreateWithCredential(context, user, credential); err != nil {
		if apperr.HasCode(err, apperr.CodeEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	if name := strings.TrimSpace(input.OrganizationName); name != "" {
		if _, err := service.tenancy.Bootstrap(context, name, user.ID); err != nil {
			return nil, fmt.Errorf("auth_service_register_bootstrap_failed: %w", err)
		}
	}

	service.metrics.Registered()
	ctxutil.GetLogger(context).InfoContext(context, "user_registered", slog.String("user_id", user.ID))

	return service.startSession(context, user, credential, input.Client)
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
	Client   ClientInfo
}

/*
Login validates user credentials and issues a new session family.

Description: Applies the lockout gate before the password comparison and
the inactive gate after the lockout gate. Unknown email, inactive user and
wrong password are indistinguishable to the caller.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *SessionResult: Composed session
  - err: INVALID_CREDENTIALS, ACCOUNT_LOCKED or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*SessionResult, error) {
	email := normalizeEmail(input.Email)

	user, err := service.users.FindByEmail(context, email)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			service.metrics.LoginAttempt(string(ReasonUnknownEmail))
			return nil, apperr.InvalidCredentials()
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	credential, err := service.credentials.FindByUser(context, user.ID, ProviderLocal)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil, apperr.InvalidCredentials()
		}
		return nil, fmt.Errorf("auth_service_login_credential_failed: %w", err)
	}

	if err := service.admit(context, user, credential, input.Client); err != nil {
		return nil, err
	}

	// Constant-time comparison inside bcrypt
	if !sec.CheckPasswordHash(input.Password, credential.PasswordHash) {
		return nil, service.recordFailure(context, user, credential, input.Client)
	}

	if err := service.recordSuccess(context, user, credential, input.Client, ReasonSuccess); err != nil {
		return nil, err
	}

	return service.startSession(context, user, credential, input.Client)
}

// # Account Self-Service

/*
ChangePassword replaces the caller's password.

Description: Verifies the current password (subject to lockout), stores the
new hash, clears the expired flag, and revokes every other session family of
the user. The family of currentRefreshToken survives when it belongs to the
caller.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string
  - currentRefreshToken: string (optional)
  - client: ClientInfo

Returns:
  - err: INVALID_CREDENTIALS, ACCOUNT_LOCKED or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword, currentRefreshToken string, client ClientInfo) error {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return err
	}

	credential, err := service.credentials.FindByUser(context, userID, ProviderLocal)
	if err != nil {
		return err
	}

	if err := service.admit(context, user, credential, client); err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, credential.PasswordHash) {
		return service.recordFailure(context, user, credential, client)
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	now := service.now()
	if err := service.credentials.UpdatePassword(context, userID, ProviderLocal, hashedPassword, false, now); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	if err := service.credentials.ResetFailures(context, credential.ID); err != nil {
		return fmt.Errorf("auth_service_change_password_reset_failed: %w", err)
	}

	// Keep the caller's own family when the presented secret is theirs
	keepFamilyID := ""
	if currentRefreshToken != "" {
		session, err := service.sessions.FindByTokenHash(context, sec.HashToken(currentRefreshToken))
		if err == nil && session.UserID == userID {
			keepFamilyID = session.FamilyID
		}
	}

	var revoked int64
	if keepFamilyID != "" {
		revoked, err = service.sessions.RevokeOtherFamilies(context, userID, keepFamilyID, RevokePasswordChanged, now)
	} else {
		revoked, err = service.sessions.RevokeAllForUser(context, userID, RevokePasswordChanged, now)
	}
	if err != nil {
		return fmt.Errorf("auth_service_change_password_revoke_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "password_changed",
		slog.String("user_id", userID),
		slog.Int64("sessions_revoked", revoked),
	)

	return nil
}

/*
Me returns the authenticated user with their active memberships.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Identity: User and memberships
  - err: NotFound or storage failures
*/
func (service *Service) Me(context context.Context, userID string) (*Identity, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	memberships, err := service.membershipSummaries(context, userID)
	if err != nil {
		return nil, err
	}

	return &Identity{User: user, Memberships: memberships}, nil
}
