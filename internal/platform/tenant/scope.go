// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package tenant defines the per-request organization scope.
//
// A [Scope] is resolved once at the request boundary and handed to every
// service operation that touches tenant data as an explicit parameter.
package tenant

import "github.com/taibuivan/bizcore/internal/platform/sec"

// Scope identifies who is acting and inside which organization.
type Scope struct {
	OrganizationID string
	UserID         string
	Role           sec.Role
}

// IsZero reports whether no organization has been resolved.
func (s Scope) IsZero() bool {
	return s.OrganizationID == ""
}

// Allows reports whether the scope's role meets the required role.
func (s Scope) Allows(required sec.Role) bool {
	return !s.IsZero() && s.Role.AtLeast(required)
}
