// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tenancy owns organizations and the memberships that bind users to them.

The identity core only reads memberships (to populate session results and to
resolve the per-request [tenant.Scope]) and asks this package to bootstrap an
organization when a user registers with an organization name.
*/
package tenancy

import (
	"time"

	"github.com/taibuivan/bizcore/internal/platform/sec"
)

// # Core Entities

// Organization is a tenant: every business record belongs to exactly one.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"` // URL-safe, unique across organizations
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership is a (user, organization, role, active) tuple.
type Membership struct {
	UserID           string    `json:"user_id"`
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"` // Denormalized for session results
	Role             sec.Role  `json:"role"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}
