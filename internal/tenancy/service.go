// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenancy

import (
	"context"
	"fmt"
	"strings"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/tenant"
	"github.com/taibuivan/bizcore/pkg/slug"
	"github.com/taibuivan/bizcore/pkg/uuid"
)

// slugSuffixLength is the number of hex characters appended to organization slugs.
const slugSuffixLength = 6

// Service exposes the membership reads and organization bootstrap used by the identity core.
type Service struct {
	repository Repository
}

// NewService constructs a new [Service].
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// ActiveMemberships returns the user's active memberships.
func (service *Service) ActiveMemberships(context context.Context, userID string) ([]*Membership, error) {
	memberships, err := service.repository.ListActiveByUser(context, userID)
	if err != nil {
		return nil, fmt.Errorf("tenancy_service_list_memberships_failed: %w", err)
	}
	return memberships, nil
}

// Bootstrap creates an organization named name owned by userID.
func (service *Service) Bootstrap(context context.Context, name, userID string) (*Membership, error) {
	id := uuid.New()
	name = strings.TrimSpace(name)

	organization := &Organization{
		ID:       id,
		Name:     name,
		Slug:     organizationSlug(name, id),
		IsActive: true,
	}

	membership, err := service.repository.CreateWithOwner(context, organization, userID)
	if err != nil {
		return nil, fmt.Errorf("tenancy_service_bootstrap_failed: %w", err)
	}
	return membership, nil
}

/*
ResolveScope builds the request scope for userID.

Description: An explicit organizationID must be an active membership of the
user. Without one, the first active membership is used. A user with no
membership gets a scope with an empty organization.

Parameters:
  - context: context.Context
  - userID: string
  - organizationID: string (optional)

Returns:
  - tenant.Scope: Resolved scope
  - err: Forbidden if the requested organization is not accessible
*/
func (service *Service) ResolveScope(context context.Context, userID, organizationID string) (tenant.Scope, error) {
	if organizationID != "" {
		membership, err := service.repository.FindActive(context, userID, organizationID)
		if err != nil {
			if apperr.HasCode(err, "NOT_FOUND") {
				return tenant.Scope{}, apperr.Forbidden("Not a member of this organization")
			}
			return tenant.Scope{}, fmt.Errorf("tenancy_service_resolve_scope_failed: %w", err)
		}
		return tenant.Scope{OrganizationID: membership.OrganizationID, UserID: userID, Role: membership.Role}, nil
	}

	memberships, err := service.ActiveMemberships(context, userID)
	if err != nil {
		return tenant.Scope{}, err
	}

	if len(memberships) == 0 {
		return tenant.Scope{UserID: userID}, nil
	}

	first := memberships[0]
	return tenant.Scope{OrganizationID: first.OrganizationID, UserID: userID, Role: first.Role}, nil
}

// organizationSlug derives a unique handle from the name and the random tail of the id.
func organizationSlug(name, id string) string {
	suffix := strings.ReplaceAll(id, "-", "")
	suffix = suffix[len(suffix)-slugSuffixLength:]

	base := slug.From(name)
	if base == "" {
		return "org-" + suffix
	}
	return base + "-" + suffix
}
