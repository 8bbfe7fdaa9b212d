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
)

// # User Repository

// PostgresUserRepository implements the [UserRepository] interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the [UserRepository].
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// accountSelect lists the account columns in [PostgresUserRepository.findOne] scan order.
var accountSelect = fmt.Sprintf("SELECT %s FROM %s",
	strings.Join(schema.UserAccount.Columns(), ", "),
	schema.UserAccount.Table,
)

/*
CreateWithCredential persists a user and its local credential atomically.

Description: Both rows are written inside one transaction so a user never
exists without a credential. The case-insensitive unique index on email turns
a concurrent duplicate registration into EMAIL_ALREADY_EXISTS.

Parameters:
  - context: context.Context
  - user: *User
  - credential: *Credential

Returns:
  - error: apperr.EmailAlreadyExists or persistence failures
*/
func (repository *PostgresUserRepository) CreateWithCredential(context context.Context, user *User, credential *Credential) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt
	credential.CreatedAt = user.CreatedAt
	credential.UpdatedAt = user.CreatedAt

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		const insertUser = `
			INSERT INTO users.account (id, email, displayname, isactive, createdat, updatedat)
			VALUES ($1, $2, $3, $4, $5, $6)`

		if _, err := tx.Exec(context, insertUser,
			user.ID, user.Email, user.DisplayName, user.IsActive, user.CreatedAt, user.UpdatedAt,
		); err != nil {
			return err
		}

		const insertCredential = `
			INSERT INTO users.credential (
				id, userid, provider, passwordhash, islocked, failedattempts,
				passwordexpired, passwordchangedat, createdat, updatedat
			) VALUES ($1, $2, $3, $4, FALSE, 0, $5, $6, $7, $8)`

		_, err := tx.Exec(context, insertCredential,
			credential.ID, credential.UserID, credential.Provider, credential.PasswordHash,
			credential.PasswordExpired, credential.PasswordChangedAt, credential.CreatedAt, credential.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.EmailAlreadyExists()
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

// FindByID implements [UserRepository].
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := accountSelect + fmt.Sprintf(" WHERE %s = $1", schema.UserAccount.ID)

	return repository.findOne(context, query, id, "find_by_id")
}

/*
FindByEmail retrieves a user record by email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := accountSelect + fmt.Sprintf(" WHERE LOWER(%s) = $1", schema.UserAccount.Email)

	return repository.findOne(context, query, strings.ToLower(email), "find_by_email")
}

func (repository *PostgresUserRepository) findOne(context context.Context, query, argument, operation string) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, argument).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.IsActive,
		&user.LastAccessAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_%s_failed: %w", operation, err)
	}

	return user, nil
}

// TouchLastAccess implements [UserRepository].
func (repository *PostgresUserRepository) TouchLastAccess(context context.Context, userID string, at time.Time) error {
	const query = `UPDATE users.account SET lastaccessat = $2 WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, userID, at); err != nil {
		return fmt.Errorf("postgres_user_repo_touch_failed: %w", err)
	}
	return nil
}

// SetActive implements [UserRepository].
func (repository *PostgresUserRepository) SetActive(context context.Context, userID string, active bool) error {
	const query = `UPDATE users.account SET isactive = $2, updatedat = NOW() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, active)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_active_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// # Credential Repository

// PostgresCredentialRepository implements the [CredentialRepository] interface using pgx.
type PostgresCredentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository creates a new PostgreSQL implementation of the [CredentialRepository].
func NewCredentialRepository(pool *pgxpool.Pool) *PostgresCredentialRepository {
	return &PostgresCredentialRepository{pool: pool}
}

var credentialSelect = fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2",
	strings.Join(schema.UserCredential.Columns(), ", "),
	schema.UserCredential.Table,
	schema.UserCredential.UserID,
	schema.UserCredential.Provider,
)

// FindByUser implements [CredentialRepository].
func (repository *PostgresCredentialRepository) FindByUser(context context.Context, userID, provider string) (*Credential, error) {
	query := credentialSelect

	credential := &Credential{}
	err := repository.pool.QueryRow(context, query, userID, provider).Scan(
		&credential.ID,
		&credential.UserID,
		&credential.Provider,
		&credential.PasswordHash,
		&credential.IsLocked,
		&credential.FailedAttempts,
		&credential.LockedAt,
		&credential.PasswordExpired,
		&credential.PasswordChangedAt,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Credential")
		}
		return nil, fmt.Errorf("postgres_credential_repo_find_failed: %w", err)
	}

	return credential, nil
}

/*
RecordFailure increments the counter and applies the lockout in one statement.

Description: The right-hand side of every SET clause reads the pre-update row,
so two concurrent failures each observe a distinct counter value and exactly
one of them crosses the threshold. The lockout timestamp is only written on the
transition into the locked state.

Parameters:
  - context: context.Context
  - credentialID: string
  - threshold: int
  - at: time.Time

Returns:
  - int: Counter after the increment
  - bool: Locked flag after the update
  - error: Persistence failures
*/
func (repository *PostgresCredentialRepository) RecordFailure(context context.Context, credentialID string, threshold int, at time.Time) (int, bool, error) {
	const query = `
		UPDATE users.credential
		SET failedattempts = failedattempts + 1,
		    islocked = islocked OR failedattempts + 1 >= $2,
		    lockedat = CASE
		        WHEN NOT islocked AND failedattempts + 1 >= $2 THEN $3
		        ELSE lockedat
		    END,
		    updatedat = $3
		WHERE id = $1
		RETURNING failedattempts, islocked`

	var attempts int
	var locked bool

	err := repository.pool.QueryRow(context, query, credentialID, threshold, at).Scan(&attempts, &locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, apperr.NotFound("Credential")
		}
		return 0, false, fmt.Errorf("postgres_credential_repo_record_failure_failed: %w", err)
	}

	return attempts, locked, nil
}

// ResetFailures implements [CredentialRepository].
func (repository *PostgresCredentialRepository) ResetFailures(context context.Context, credentialID string) error {
	const query = `
		UPDATE users.credential
		SET failedattempts = 0, updatedat = NOW()
		WHERE id = $1 AND failedattempts <> 0`

	if _, err := repository.pool.Exec(context, query, credentialID); err != nil {
		return fmt.Errorf("postgres_credential_repo_reset_failures_failed: %w", err)
	}
	return nil
}

// Unlock implements [CredentialRepository].
func (repository *PostgresCredentialRepository) Unlock(context context.Context, userID, provider string) error {
	const query = `
		UPDATE users.credential
		SET islocked = FALSE, lockedat = NULL, failedattempts = 0, updatedat = NOW()
		WHERE userid = $1 AND provider = $2`

	tag, err := repository.pool.Exec(context, query, userID, provider)
	if err != nil {
		return fmt.Errorf("postgres_credential_repo_unlock_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Credential")
	}
	return nil
}

// UpdatePassword implements [CredentialRepository].
func (repository *PostgresCredentialRepository) UpdatePassword(context context.Context, userID, provider, passwordHash string, expired bool, at time.Time) error {
	const query = `
		UPDATE users.credential
		SET passwordhash = $3, passwordexpired = $4, passwordchangedat = $5, updatedat = $5
		WHERE userid = $1 AND provider = $2`

	tag, err := repository.pool.Exec(context, query, userID, provider, passwordHash, expired, at)
	if err != nil {
		return fmt.Errorf("postgres_credential_repo_update_password_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Credential")
	}
	return nil
}
