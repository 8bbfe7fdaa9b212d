// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/database/schema"
	"github.com/taibuivan/bizcore/internal/platform/dberr"
	"github.com/taibuivan/bizcore/internal/platform/postgres"
	"github.com/taibuivan/bizcore/internal/platform/sec"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed tenancy store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// membershipSelect joins the organization name; inactive organizations hide their memberships.
var membershipSelect = fmt.Sprintf(`
	SELECT m.%s, m.%s, o.%s, m.%s, m.%s, m.%s
	FROM %s m
	JOIN %s o ON o.%s = m.%s
	WHERE m.%s = $1 AND m.%s = TRUE AND o.%s = TRUE`,
	schema.TenancyMembership.UserID, schema.TenancyMembership.OrganizationID, schema.TenancyOrganization.Name,
	schema.TenancyMembership.Role, schema.TenancyMembership.IsActive, schema.TenancyMembership.CreatedAt,
	schema.TenancyMembership.Table,
	schema.TenancyOrganization.Table, schema.TenancyOrganization.ID, schema.TenancyMembership.OrganizationID,
	schema.TenancyMembership.UserID, schema.TenancyMembership.IsActive, schema.TenancyOrganization.IsActive,
)

func scanMembership(row pgx.Row) (*Membership, error) {
	membership := &Membership{}
	err := row.Scan(
		&membership.UserID,
		&membership.OrganizationID,
		&membership.OrganizationName,
		&membership.Role,
		&membership.IsActive,
		&membership.CreatedAt,
	)
	return membership, err
}

// ListActiveByUser implements [Repository]. Oldest membership first.
func (repository *PostgresRepository) ListActiveByUser(context context.Context, userID string) ([]*Membership, error) {
	query := membershipSelect + fmt.Sprintf(" ORDER BY m.%s ASC, m.%s ASC",
		schema.TenancyMembership.CreatedAt, schema.TenancyMembership.OrganizationID)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_membership_repo_list_failed: %w", err)
	}
	defer rows.Close()

	memberships := make([]*Membership, 0)
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_membership_repo_scan_failed: %w", err)
		}
		memberships = append(memberships, membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_membership_repo_rows_failed: %w", err)
	}

	return memberships, nil
}

// FindActive implements [Repository].
func (repository *PostgresRepository) FindActive(context context.Context, userID, organizationID string) (*Membership, error) {
	query := membershipSelect + fmt.Sprintf(" AND m.%s = $2", schema.TenancyMembership.OrganizationID)

	membership, err := scanMembership(repository.pool.QueryRow(context, query, userID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Membership")
		}
		return nil, fmt.Errorf("postgres_membership_repo_find_failed: %w", err)
	}

	return membership, nil
}

var (
	organizationInsertQuery = fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
		schema.TenancyOrganization.Table,
		schema.TenancyOrganization.ID, schema.TenancyOrganization.Name, schema.TenancyOrganization.Slug,
		schema.TenancyOrganization.IsActive, schema.TenancyOrganization.CreatedAt,
	)

	membershipInsertQuery = fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
		schema.TenancyMembership.Table,
		schema.TenancyMembership.UserID, schema.TenancyMembership.OrganizationID, schema.TenancyMembership.Role,
		schema.TenancyMembership.IsActive, schema.TenancyMembership.CreatedAt,
	)
)

/*
CreateWithOwner inserts the organization and its owner membership in one transaction.

Parameters:
  - context: context.Context
  - organization: *Organization
  - userID: string

Returns:
  - *Membership: The owner membership
  - error: apperr Conflict on a taken slug, Internal otherwise
*/
func (repository *PostgresRepository) CreateWithOwner(context context.Context, organization *Organization, userID string) (*Membership, error) {
	now := time.Now()
	if organization.CreatedAt.IsZero() {
		organization.CreatedAt = now
	}

	membership := &Membership{
		UserID:           userID,
		OrganizationID:   organization.ID,
		OrganizationName: organization.Name,
		Role:             sec.RoleOwner,
		IsActive:         true,
		CreatedAt:        now,
	}

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(context, organizationInsertQuery,
			organization.ID, organization.Name, organization.Slug, organization.IsActive, organization.CreatedAt,
		); err != nil {
			return fmt.Errorf("postgres_organization_repo_create_failed: %w", err)
		}

		if _, err := tx.Exec(context, membershipInsertQuery,
			membership.UserID, membership.OrganizationID, membership.Role, membership.IsActive, membership.CreatedAt,
		); err != nil {
			return fmt.Errorf("postgres_membership_repo_create_failed: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, dberr.Wrap(err, "create_organization")
	}

	return membership, nil
}
