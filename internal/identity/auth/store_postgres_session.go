// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/database/schema"
	"github.com/taibuivan/bizcore/internal/platform/dberr"
	"github.com/taibuivan/bizcore/internal/platform/postgres"
	"github.com/taibuivan/bizcore/pkg/pointer"
)

// # Session Repository

// PostgresSessionRepository implements the [SessionRepository] interface using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the [SessionRepository].
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

var sessionInsertQuery = fmt.Sprintf(`
	INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
	VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`,
	schema.UserSession.Table,
	schema.UserSession.ID, schema.UserSession.UserID, schema.UserSession.TokenHash,
	schema.UserSession.FamilyID, schema.UserSession.UserAgent, schema.UserSession.IPAddress,
	schema.UserSession.ExpiresAt, schema.UserSession.IsRevoked, schema.UserSession.CreatedAt,
)

/*
Create persists a new refresh session.

Parameters:
  - context: context.Context
  - session: *RefreshSession

Returns:
  - error: Persistence failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *RefreshSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, sessionInsertQuery,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.FamilyID,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}
	return nil
}

// FindByTokenHash implements [SessionRepository].
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*RefreshSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.UserSession.Columns(), ", "),
		schema.UserSession.Table, schema.UserSession.TokenHash,
	)

	session := &RefreshSession{}
	var revokedReason *string

	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.FamilyID,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.IsRevoked,
		&revokedReason,
		&session.RevokedAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	session.RevokedReason = RevokeReason(pointer.Val(revokedReason))

	return session, nil
}

/*
Rotate revokes the presented session and inserts its successor atomically.

Description: The revoke only matches a row that is still active and unexpired.
When two requests race on the same secret, exactly one update succeeds; the
loser sees zero affected rows, rolls back, and receives [ErrSessionNotActive].

Parameters:
  - context: context.Context
  - currentID: string
  - next: *RefreshSession
  - at: time.Time

Returns:
  - error: ErrSessionNotActive or persistence failures
*/
func (repository *PostgresSessionRepository) Rotate(context context.Context, currentID string, next *RefreshSession, at time.Time) error {
	revokeQuery := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE, %s = $2, %s = $3
		WHERE %s = $1 AND %s = FALSE AND %s > $3`,
		schema.UserSession.Table,
		schema.UserSession.IsRevoked, schema.UserSession.RevokedReason, schema.UserSession.RevokedAt,
		schema.UserSession.ID, schema.UserSession.IsRevoked, schema.UserSession.ExpiresAt,
	)

	if next.CreatedAt.IsZero() {
		next.CreatedAt = at
	}

	return postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(context, revokeQuery, currentID, string(RevokeRotated), at)
		if err != nil {
			return fmt.Errorf("postgres_session_repo_rotate_revoke_failed: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return ErrSessionNotActive
		}

		if _, err := tx.Exec(context, sessionInsertQuery,
			next.ID,
			next.UserID,
			next.TokenHash,
			next.FamilyID,
			next.UserAgent,
			next.IPAddress,
			next.ExpiresAt,
			next.CreatedAt,
		); err != nil {
			return fmt.Errorf("postgres_session_repo_rotate_insert_failed: %w", err)
		}

		return nil
	})
}

// RevokeFamily implements [SessionRepository].
func (repository *PostgresSessionRepository) RevokeFamily(context context.Context, familyID string, reason RevokeReason, at time.Time) (int64, error) {
	return repository.revokeWhere(context, schema.UserSession.FamilyID+" = $3", reason, at, "revoke_family", familyID)
}

// RevokeAllForUser implements [SessionRepository].
func (repository *PostgresSessionRepository) RevokeAllForUser(context context.Context, userID string, reason RevokeReason, at time.Time) (int64, error) {
	return repository.revokeWhere(context, schema.UserSession.UserID+" = $3", reason, at, "revoke_all", userID)
}

// RevokeOtherFamilies implements [SessionRepository].
func (repository *PostgresSessionRepository) RevokeOtherFamilies(context context.Context, userID, keepFamilyID string, reason RevokeReason, at time.Time) (int64, error) {
	predicate := fmt.Sprintf("%s = $3 AND %s <> $4", schema.UserSession.UserID, schema.UserSession.FamilyID)
	return repository.revokeWhere(context, predicate, reason, at, "revoke_others", userID, keepFamilyID)
}

// revokeWhere revokes every still-active row matching predicate. Rows that
// are already revoked keep their original reason and timestamp.
func (repository *PostgresSessionRepository) revokeWhere(context context.Context, predicate string, reason RevokeReason, at time.Time, operation string, arguments ...any) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE, %s = $1, %s = $2
		WHERE %s = FALSE AND %s`,
		schema.UserSession.Table,
		schema.UserSession.IsRevoked, schema.UserSession.RevokedReason, schema.UserSession.RevokedAt,
		schema.UserSession.IsRevoked, predicate,
	)

	tag, err := repository.pool.Exec(context, query, append([]any{string(reason), at}, arguments...)...)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_%s_failed: %w", operation, err)
	}

	return tag.RowsAffected(), nil
}

// DeleteExpiredBefore implements [SessionRepository].
func (repository *PostgresSessionRepository) DeleteExpiredBefore(context context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`,
		schema.UserSession.Table, schema.UserSession.ExpiresAt)

	tag, err := repository.pool.Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// # Login Attempt Repository

// PostgresLoginAttemptRepository implements the [LoginAttemptRepository] interface using pgx.
type PostgresLoginAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewLoginAttemptRepository creates a new PostgreSQL implementation of the [LoginAttemptRepository].
func NewLoginAttemptRepository(pool *pgxpool.Pool) *PostgresLoginAttemptRepository {
	return &PostgresLoginAttemptRepository{pool: pool}
}

// Append implements [LoginAttemptRepository].
func (repository *PostgresLoginAttemptRepository) Append(context context.Context, attempt *LoginAttempt) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		schema.UserLoginAttempt.Table,
		strings.Join(schema.UserLoginAttempt.Columns(), ", "),
	)

	var userID *string
	if attempt.UserID != "" {
		userID = &attempt.UserID
	}

	_, err := repository.pool.Exec(context, query,
		attempt.ID,
		userID,
		attempt.Email,
		attempt.IsSuccess,
		attempt.IPAddress,
		attempt.UserAgent,
		string(attempt.Reason),
		attempt.CreatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "login_attempt_append")
	}
	return nil
}

/*
ListByUser returns a page of audit rows for one user.

Parameters:
  - context: context.Context
  - userID: string
  - limit: int
  - offset: int

Returns:
  - []*LoginAttempt: Newest first
  - int: Total rows for the user
  - error: Database retrieval failures
*/
func (repository *PostgresLoginAttemptRepository) ListByUser(context context.Context, userID string, limit, offset int) ([]*LoginAttempt, int, error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`,
		schema.UserLoginAttempt.Table, schema.UserLoginAttempt.UserID)

	var total int
	if err := repository.pool.QueryRow(context, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "login_attempt_count")
	}

	listQuery := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1
		ORDER BY %s DESC, %s DESC
		LIMIT $2 OFFSET $3`,
		strings.Join(schema.UserLoginAttempt.Columns(), ", "),
		schema.UserLoginAttempt.Table,
		schema.UserLoginAttempt.UserID,
		schema.UserLoginAttempt.CreatedAt, schema.UserLoginAttempt.ID,
	)

	rows, err := repository.pool.Query(context, listQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "login_attempt_list")
	}
	defer rows.Close()

	attempts := make([]*LoginAttempt, 0, limit)
	for rows.Next() {
		attempt := &LoginAttempt{}
		var attemptUserID *string
		var reason string

		if err := rows.Scan(
			&attempt.ID,
			&attemptUserID,
			&attempt.Email,
			&attempt.IsSuccess,
			&attempt.IPAddress,
			&attempt.UserAgent,
			&reason,
			&attempt.CreatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "login_attempt_scan")
		}

		attempt.UserID = pointer.Val(attemptUserID)
		attempt.Reason = AttemptReason(reason)
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "login_attempt_rows")
	}

	return attempts, total, nil
}

// DeleteOlderThan implements [LoginAttemptRepository].
func (repository *PostgresLoginAttemptRepository) DeleteOlderThan(context context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`,
		schema.UserLoginAttempt.Table, schema.UserLoginAttempt.CreatedAt)

	tag, err := repository.pool.Exec(context, query, cutoff)
	if err != nil {
		return 0, dberr.Wrap(err, "login_attempt_delete")
	}
	return tag.RowsAffected(), nil
}
