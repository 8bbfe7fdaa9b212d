// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizcore/internal/identity/auth"
	"github.com/taibuivan/bizcore/internal/platform/apperr"
)

func login(f *fixture, email, secret string) (*auth.SessionResult, error) {
	return f.service.Login(context.Background(), auth.LoginInput{Email: email, Password: secret, Client: client})
}

/*
TestRegister_SessionRedeemsOnce verifies that a fresh registration yields a
refresh secret that rotates exactly once.
*/
func TestRegister_SessionRedeemsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session := f.register(t, "owner@acme.test")
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int64(900), session.ExpiresIn)
	assert.Equal(t, "owner@acme.test", session.User.Email)
	assert.NotNil(t, session.Memberships)
	assert.False(t, session.PasswordExpired)

	claims, err := f.tokens.VerifyToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, "Test User", claims.DisplayName)

	rotated, err := f.service.Refresh(ctx, session.RefreshToken, client)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	_, err = f.service.Refresh(ctx, session.RefreshToken, client)
	requireCode(t, err, apperr.CodeInvalidRefreshToken)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Registrations))
}

/*
TestRegister_DuplicateEmail ensures a second registration with the same
address fails and creates no user.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@acme.test")

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:     "Other",
		Email:    "  DUP@acme.test ",
		Password: password,
		Client:   client,
	})

	requireCode(t, err, apperr.CodeEmailAlreadyExists)
	assert.Equal(t, 1, f.store.userCount())
}

/*
TestRegister_BootstrapsOrganization checks that an organization name creates
an owner membership surfaced in the session result.
*/
func TestRegister_BootstrapsOrganization(t *testing.T) {
	f := newFixture(t)

	session, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:             "Baker",
		Email:            "baker@acme.test",
		Password:         password,
		OrganizationName: "Acme Bakery",
		Client:           client,
	})
	require.NoError(t, err)

	require.Len(t, session.Memberships, 1)
	assert.Equal(t, "Acme Bakery", session.Memberships[0].OrganizationName)
	assert.Equal(t, "owner", string(session.Memberships[0].Role))
}

/*
TestLogin_LocksAfterFiveFailures covers the lockout threshold: the sixth
attempt with the correct password reports the lock.
*/
func TestLogin_LocksAfterFiveFailures(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "lock@acme.test")

	for i := 0; i < auth.LockoutThreshold; i++ {
		_, err := login(f, "lock@acme.test", "wrong-password")
		requireCode(t, err, apperr.CodeInvalidCredentials)
	}

	credential := f.store.credentialFor(session.User.ID)
	assert.True(t, credential.IsLocked)
	assert.NotNil(t, credential.LockedAt)
	assert.Equal(t, auth.LockoutThreshold, credential.FailedAttempts)

	_, err := login(f, "lock@acme.test", password)
	requireCode(t, err, apperr.CodeAccountLocked)
	assert.Equal(t, 423, apperr.As(err).HTTPStatus)

	reasons := f.store.reasonsOf(session.User.ID)
	require.Len(t, reasons, auth.LockoutThreshold+1)
	assert.Equal(t, auth.ReasonAccountLocked, reasons[len(reasons)-1])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Lockouts))
}

/*
TestLogin_SuccessResetsCounter verifies that a success resets the counter, so
five fresh failures are needed to lock again.
*/
func TestLogin_SuccessResetsCounter(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "reset@acme.test")

	for i := 0; i < auth.LockoutThreshold-1; i++ {
		_, err := login(f, "reset@acme.test", "wrong-password")
		requireCode(t, err, apperr.CodeInvalidCredentials)
	}

	_, err := login(f, "reset@acme.test", password)
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.credentialFor(session.User.ID).FailedAttempts)

	// One failure no longer locks
	_, err = login(f, "reset@acme.test", "wrong-password")
	requireCode(t, err, apperr.CodeInvalidCredentials)
	_, err = login(f, "reset@acme.test", password)
	require.NoError(t, err)

	for i := 0; i < auth.LockoutThreshold; i++ {
		_, err := login(f, "reset@acme.test", "wrong-password")
		requireCode(t, err, apperr.CodeInvalidCredentials)
	}

	_, err = login(f, "reset@acme.test", password)
	requireCode(t, err, apperr.CodeAccountLocked)
}

/*
TestLogin_InactiveUser ensures an inactive account with the right password is
rejected as invalid credentials without counting a failure.
*/
func TestLogin_InactiveUser(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "gone@acme.test")
	f.store.deactivate(session.User.ID)

	_, err := login(f, "gone@acme.test", password)
	requireCode(t, err, apperr.CodeInvalidCredentials)

	assert.Equal(t, 0, f.store.credentialFor(session.User.ID).FailedAttempts)
	assert.Equal(t, []auth.AttemptReason{auth.ReasonUserInactive}, f.store.reasonsOf(session.User.ID))
}

/*
TestLogin_LockCheckedBeforeInactive verifies the gate order.
*/
func TestLogin_LockCheckedBeforeInactive(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "both@acme.test")

	for i := 0; i < auth.LockoutThreshold; i++ {
		_, _ = login(f, "both@acme.test", "wrong-password")
	}
	f.store.deactivate(session.User.ID)

	_, err := login(f, "both@acme.test", password)
	requireCode(t, err, apperr.CodeAccountLocked)
}

/*
TestLogin_UnknownEmail verifies unknown addresses are indistinguishable from
wrong passwords.
*/
func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := login(f, "nobody@acme.test", password)
	requireCode(t, err, apperr.CodeInvalidCredentials)
	assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LoginAttempts.WithLabelValues("UNKNOWN_EMAIL")))
}

/*
TestLogin_AuditsSuccess checks the success reason and the last-access stamp.
*/
func TestLogin_AuditsSuccess(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "audit@acme.test")

	_, err := login(f, "AUDIT@acme.test", password)
	require.NoError(t, err)

	assert.Equal(t, []auth.AttemptReason{auth.ReasonSuccess}, f.store.reasonsOf(session.User.ID))

	user, err := f.store.FindByID(context.Background(), session.User.ID)
	require.NoError(t, err)
	require.NotNil(t, user.LastAccessAt)
	assert.True(t, user.LastAccessAt.Equal(f.clock.Now()))
}

/*
TestChangePassword_RevokesOtherFamilies verifies the caller's family survives
and every other family is revoked.
*/
func TestChangePassword_RevokesOtherFamilies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.register(t, "change@acme.test")
	second, err := login(f, "change@acme.test", password)
	require.NoError(t, err)

	err = f.service.ChangePassword(ctx, first.User.ID, password, "new-password-123", second.RefreshToken, client)
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, first.RefreshToken, client)
	requireCode(t, err, apperr.CodeInvalidRefreshToken)

	_, err = f.service.Refresh(ctx, second.RefreshToken, client)
	require.NoError(t, err)

	_, err = login(f, "change@acme.test", password)
	requireCode(t, err, apperr.CodeInvalidCredentials)

	_, err = login(f, "change@acme.test", "new-password-123")
	require.NoError(t, err)

	for _, session := range f.store.sessionsOf(first.User.ID) {
		if session.RevokedReason == auth.RevokePasswordChanged {
			assert.True(t, session.IsRevoked)
		}
	}
}

/*
TestChangePassword_WrongCurrent counts toward the lockout.
*/
func TestChangePassword_WrongCurrent(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "wrong@acme.test")

	err := f.service.ChangePassword(context.Background(), session.User.ID, "not-it", "new-password-123", "", client)
	requireCode(t, err, apperr.CodeInvalidCredentials)
	assert.Equal(t, 1, f.store.credentialFor(session.User.ID).FailedAttempts)
}

/*
TestMe returns the user and memberships.
*/
func TestMe(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "me@acme.test")

	identity, err := f.service.Me(context.Background(), session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@acme.test", identity.User.Email)
	assert.Empty(t, identity.Memberships)
	assert.NotNil(t, identity.Memberships)
}
