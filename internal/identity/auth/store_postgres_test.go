//go:build integration

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizcore/internal/identity/auth"
	"github.com/taibuivan/bizcore/internal/platform/migration"
	pgstore "github.com/taibuivan/bizcore/internal/platform/postgres"
	"github.com/taibuivan/bizcore/pkg/uuid"
)

// Run with: BIZCORE_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/identity/auth/
const testDatabaseEnv = "BIZCORE_TEST_DATABASE_URL"

func newPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	databaseURL := os.Getenv(testDatabaseEnv)
	if databaseURL == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migration.Up(databaseURL, "../../../data/migrations", logger))

	options := pgstore.BatchPool
	options.MaxConns = 16
	pool, err := pgstore.NewPool(context.Background(), databaseURL, options, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool) (*auth.User, *auth.Credential) {
	t.Helper()

	user := &auth.User{
		ID:          uuid.New(),
		Email:       uuid.New() + "@integration.test",
		DisplayName: "Integration",
		IsActive:    true,
	}
	credential := &auth.Credential{
		ID:           uuid.New(),
		UserID:       user.ID,
		Provider:     auth.ProviderLocal,
		PasswordHash: "unused",
	}
	require.NoError(t, auth.NewUserRepository(pool).CreateWithCredential(context.Background(), user, credential))
	return user, credential
}

/*
TestPostgres_RecordFailureConcurrent counts every concurrent failure exactly
once and flips the lock at the threshold, stamping lockedat only on that
transition.
*/
func TestPostgres_RecordFailureConcurrent(t *testing.T) {
	pool := newPostgres(t)
	_, credential := seedUser(t, pool)
	repository := auth.NewCredentialRepository(pool)

	const (
		workers   = 12
		threshold = 5
	)
	base := time.Now().UTC().Truncate(time.Second)

	type outcome struct {
		attempts int
		locked   bool
		at       time.Time
	}
	outcomes := make(chan outcome, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(at time.Time) {
			defer wg.Done()
			attempts, locked, err := repository.RecordFailure(context.Background(), credential.ID, threshold, at)
			assert.NoError(t, err)
			outcomes <- outcome{attempts, locked, at}
		}(base.Add(time.Duration(i) * time.Second))
	}
	wg.Wait()
	close(outcomes)

	seen := make(map[int]bool)
	var lockedAt time.Time
	for o := range outcomes {
		assert.False(t, seen[o.attempts], "counter value %d returned twice", o.attempts)
		seen[o.attempts] = true
		assert.Equal(t, o.attempts >= threshold, o.locked, "attempt %d", o.attempts)
		if o.attempts == threshold {
			lockedAt = o.at
		}
	}
	assert.Len(t, seen, workers)

	stored, err := repository.FindByUser(context.Background(), credential.UserID, auth.ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, workers, stored.FailedAttempts)
	assert.True(t, stored.IsLocked)
	require.NotNil(t, stored.LockedAt)
	assert.WithinDuration(t, lockedAt, *stored.LockedAt, time.Millisecond)

	require.NoError(t, repository.ResetFailures(context.Background(), credential.ID))
	stored, err = repository.FindByUser(context.Background(), credential.UserID, auth.ProviderLocal)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedAttempts)
	assert.True(t, stored.IsLocked, "only an unlock clears the lock")
}

/*
TestPostgres_RotateSingleWinner lets exactly one of several concurrent
rotations of the same session succeed.
*/
func TestPostgres_RotateSingleWinner(t *testing.T) {
	pool := newPostgres(t)
	user, _ := seedUser(t, pool)
	repository := auth.NewSessionRepository(pool)

	now := time.Now().UTC()
	newSession := func(familyID string, expiresAt time.Time) *auth.RefreshSession {
		return &auth.RefreshSession{
			ID:        uuid.New(),
			UserID:    user.ID,
			TokenHash: uuid.New(),
			FamilyID:  familyID,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}
	}

	familyID := uuid.New()
	current := newSession(familyID, now.Add(time.Hour))
	require.NoError(t, repository.Create(context.Background(), current))

	const workers = 8
	results := make(chan error, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repository.Rotate(context.Background(), current.ID, newSession(familyID, now.Add(time.Hour)), now)
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case assert.ErrorIs(t, err, auth.ErrSessionNotActive):
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, workers-1, lost)

	stored, err := repository.FindByTokenHash(context.Background(), current.TokenHash)
	require.NoError(t, err)
	assert.True(t, stored.IsRevoked)
	assert.Equal(t, auth.RevokeRotated, stored.RevokedReason)
}

/*
TestPostgres_RotateExpired refuses to rotate a session past its expiry and
inserts nothing.
*/
func TestPostgres_RotateExpired(t *testing.T) {
	pool := newPostgres(t)
	user, _ := seedUser(t, pool)
	repository := auth.NewSessionRepository(pool)

	now := time.Now().UTC()
	expired := &auth.RefreshSession{
		ID: uuid.New(), UserID: user.ID, TokenHash: uuid.New(), FamilyID: uuid.New(),
		ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour),
	}
	require.NoError(t, repository.Create(context.Background(), expired))

	next := &auth.RefreshSession{
		ID: uuid.New(), UserID: user.ID, TokenHash: uuid.New(), FamilyID: expired.FamilyID,
		ExpiresAt: now.Add(time.Hour),
	}
	err := repository.Rotate(context.Background(), expired.ID, next, now)
	assert.ErrorIs(t, err, auth.ErrSessionNotActive)

	_, err = repository.FindByTokenHash(context.Background(), next.TokenHash)
	assert.Error(t, err)
}
