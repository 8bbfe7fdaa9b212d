// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizcore/internal/identity/auth"
	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/mailer"
	"github.com/taibuivan/bizcore/internal/platform/metrics"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/tenancy"
)

// # Clock

type clock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// # Credential Store

// memoryStore implements every auth repository with the same atomicity the
// SQL statements provide: one mutex per statement.
type memoryStore struct {
	mu          sync.Mutex
	users       map[string]*auth.User
	credentials map[string]*auth.Credential
	sessions    map[string]*auth.RefreshSession
	attempts    []*auth.LoginAttempt
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       make(map[string]*auth.User),
		credentials: make(map[string]*auth.Credential),
		sessions:    make(map[string]*auth.RefreshSession),
	}
}

func (s *memoryStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (s *memoryStore) CreateWithCredential(_ context.Context, user *auth.User, credential *auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperr.EmailAlreadyExists()
		}
	}

	userClone, credentialClone := *user, *credential
	s.users[user.ID] = &userClone
	s.credentials[credential.ID] = &credentialClone
	return nil
}

func (s *memoryStore) TouchLastAccess(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[userID]; ok {
		user.LastAccessAt = &at
	}
	return nil
}

func (s *memoryStore) SetActive(_ context.Context, userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.IsActive = active
	return nil
}

func (s *memoryStore) credentialOf(userID, provider string) *auth.Credential {
	for _, credential := range s.credentials {
		if credential.UserID == userID && credential.Provider == provider {
			return credential
		}
	}
	return nil
}

func (s *memoryStore) FindByUser(_ context.Context, userID, provider string) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential := s.credentialOf(userID, provider)
	if credential == nil {
		return nil, apperr.NotFound("Credential")
	}
	clone := *credential
	return &clone, nil
}

func (s *memoryStore) RecordFailure(_ context.Context, credentialID string, threshold int, at time.Time) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[credentialID]
	if !ok {
		return 0, false, apperr.NotFound("Credential")
	}

	credential.FailedAttempts++
	if !credential.IsLocked && credential.FailedAttempts >= threshold {
		credential.IsLocked = true
		credential.LockedAt = &at
	}
	return credential.FailedAttempts, credential.IsLocked, nil
}

func (s *memoryStore) ResetFailures(_ context.Context, credentialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if credential, ok := s.credentials[credentialID]; ok {
		credential.FailedAttempts = 0
	}
	return nil
}

func (s *memoryStore) Unlock(_ context.Context, userID, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential := s.credentialOf(userID, provider)
	if credential == nil {
		return apperr.NotFound("Credential")
	}
	credential.IsLocked = false
	credential.LockedAt = nil
	credential.FailedAttempts = 0
	return nil
}

func (s *memoryStore) UpdatePassword(_ context.Context, userID, provider, passwordHash string, expired bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential := s.credentialOf(userID, provider)
	if credential == nil {
		return apperr.NotFound("Credential")
	}
	credential.PasswordHash = passwordHash
	credential.PasswordExpired = expired
	credential.PasswordChangedAt = &at
	return nil
}

func (s *memoryStore) Create(_ context.Context, session *auth.RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *memoryStore) FindByTokenHash(_ context.Context, tokenHash string) (*auth.RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.TokenHash == tokenHash {
			clone := *session
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (s *memoryStore) Rotate(_ context.Context, currentID string, next *auth.RefreshSession, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[currentID]
	if !ok || current.IsRevoked || !at.Before(current.ExpiresAt) {
		return auth.ErrSessionNotActive
	}

	current.IsRevoked = true
	current.RevokedReason = auth.RevokeRotated
	current.RevokedAt = &at

	clone := *next
	s.sessions[next.ID] = &clone
	return nil
}

func (s *memoryStore) revokeWhere(match func(*auth.RefreshSession) bool, reason auth.RevokeReason, at time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, session := range s.sessions {
		if !session.IsRevoked && match(session) {
			session.IsRevoked = true
			session.RevokedReason = reason
			session.RevokedAt = &at
			count++
		}
	}
	return count
}

func (s *memoryStore) RevokeFamily(_ context.Context, familyID string, reason auth.RevokeReason, at time.Time) (int64, error) {
	return s.revokeWhere(func(session *auth.RefreshSession) bool { return session.FamilyID == familyID }, reason, at), nil
}

func (s *memoryStore) RevokeAllForUser(_ context.Context, userID string, reason auth.RevokeReason, at time.Time) (int64, error) {
	return s.revokeWhere(func(session *auth.RefreshSession) bool { return session.UserID == userID }, reason, at), nil
}

func (s *memoryStore) RevokeOtherFamilies(_ context.Context, userID, keepFamilyID string, reason auth.RevokeReason, at time.Time) (int64, error) {
	return s.revokeWhere(func(session *auth.RefreshSession) bool {
		return session.UserID == userID && session.FamilyID != keepFamilyID
	}, reason, at), nil
}

func (s *memoryStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, session := range s.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

func (s *memoryStore) Append(_ context.Context, attempt *auth.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *attempt
	s.attempts = append(s.attempts, &clone)
	return nil
}

func (s *memoryStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]*auth.LoginAttempt, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*auth.LoginAttempt
	for i := len(s.attempts) - 1; i >= 0; i-- {
		if s.attempts[i].UserID == userID {
			matched = append(matched, s.attempts[i])
		}
	}

	total := len(matched)
	if offset >= total {
		return []*auth.LoginAttempt{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *memoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.attempts[:0]
	var count int64
	for _, attempt := range s.attempts {
		if attempt.CreatedAt.Before(cutoff) {
			count++
			continue
		}
		kept = append(kept, attempt)
	}
	s.attempts = kept
	return count, nil
}

// # Inspection Helpers

func (s *memoryStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memoryStore) credentialFor(userID string) auth.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.credentialOf(userID, auth.ProviderLocal)
}

func (s *memoryStore) sessionsOf(userID string) []auth.RefreshSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []auth.RefreshSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, *session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions
}

func (s *memoryStore) reasonsOf(userID string) []auth.AttemptReason {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reasons []auth.AttemptReason
	for _, attempt := range s.attempts {
		if attempt.UserID == userID {
			reasons = append(reasons, attempt.Reason)
		}
	}
	return reasons
}

func (s *memoryStore) deactivate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID].IsActive = false
}

// # Tenancy

type memoryTenancy struct {
	mu            sync.Mutex
	organizations map[string]*tenancy.Organization
	memberships   []*tenancy.Membership
}

func newMemoryTenancy() *memoryTenancy {
	return &memoryTenancy{organizations: make(map[string]*tenancy.Organization)}
}

func (m *memoryTenancy) ListActiveByUser(_ context.Context, userID string) ([]*tenancy.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	memberships := make([]*tenancy.Membership, 0)
	for _, membership := range m.memberships {
		if membership.UserID == userID && membership.IsActive {
			clone := *membership
			memberships = append(memberships, &clone)
		}
	}
	return memberships, nil
}

func (m *memoryTenancy) FindActive(_ context.Context, userID, organizationID string) (*tenancy.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, membership := range m.memberships {
		if membership.UserID == userID && membership.OrganizationID == organizationID && membership.IsActive {
			clone := *membership
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Membership")
}

func (m *memoryTenancy) CreateWithOwner(_ context.Context, organization *tenancy.Organization, userID string) (*tenancy.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.organizations[organization.ID] = organization
	membership := &tenancy.Membership{
		UserID:           userID,
		OrganizationID:   organization.ID,
		OrganizationName: organization.Name,
		Role:             sec.RoleOwner,
		IsActive:         true,
	}
	m.memberships = append(m.memberships, membership)
	return membership, nil
}

func (m *memoryTenancy) join(userID, organizationID string, role sec.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	organization := m.organizations[organizationID]
	m.memberships = append(m.memberships, &tenancy.Membership{
		UserID:           userID,
		OrganizationID:   organizationID,
		OrganizationName: organization.Name,
		Role:             role,
		IsActive:         true,
	})
}

// # Magic-Link Ledger

type memoryLedger struct {
	mu       sync.Mutex
	consumed map[string]bool
}

func (l *memoryLedger) Consume(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ttl <= 0 || l.consumed[jti] {
		return false, nil
	}
	l.consumed[jti] = true
	return true, nil
}

// # Mailbox

type mailbox struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (m *mailbox) Send(_ context.Context, message mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *mailbox) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// lastToken extracts the ?token= value of the most recent magic link.
func (m *mailbox) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.messages)
	body := m.messages[len(m.messages)-1].Body

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "http") {
			link, err := url.Parse(strings.TrimSpace(line))
			require.NoError(t, err)
			return link.Query().Get("token")
		}
	}

	t.Fatal("no link in message body")
	return ""
}

// # Fixture

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

type fixture struct {
	service  *auth.Service
	store    *memoryStore
	tenancy  *memoryTenancy
	tenants  *tenancy.Service
	ledger   *memoryLedger
	mailbox  *mailbox
	clock    *clock
	tokens   *sec.TokenService
	metrics  *metrics.Auth
	registry *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key := signingKey(t)
	clk := &clock{current: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tokens := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "bizcore.test").WithClock(clk.Now)

	store := newMemoryStore()
	tenancyRepository := newMemoryTenancy()
	tenants := tenancy.NewService(tenancyRepository)
	ledger := &memoryLedger{consumed: make(map[string]bool)}
	box := &mailbox{}
	registry := prometheus.NewRegistry()
	authMetrics := metrics.NewAuth(registry)

	service := auth.NewService(auth.Dependencies{
		Users:       store,
		Credentials: store,
		Sessions:    store,
		Attempts:    store,
		Ledger:      ledger,
		Tokens:      tokens,
		Tenancy:     tenants,
		Mailer:      box,
		Metrics:     authMetrics,
	}, auth.Options{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		MagicLinkTTL:    15 * time.Minute,
		MagicLinkURL:    "https://app.bizcore.test/auth/magic",
		Clock:           clk.Now,
	})

	return &fixture{
		service:  service,
		store:    store,
		tenancy:  tenancyRepository,
		tenants:  tenants,
		ledger:   ledger,
		mailbox:  box,
		clock:    clk,
		tokens:   tokens,
		metrics:  authMetrics,
		registry: registry,
	}
}

var client = auth.ClientInfo{UserAgent: "go-test", IPAddress: "203.0.113.7"}

const password = "correct-horse-battery"

// register creates an account and returns its first session.
func (f *fixture) register(t *testing.T, email string) *auth.SessionResult {
	t.Helper()

	session, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:     "Test User",
		Email:    email,
		Password: password,
		Client:   client,
	})
	require.NoError(t, err)
	return session
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
