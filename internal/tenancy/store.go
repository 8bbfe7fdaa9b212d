// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenancy

import "context"

// # Membership Data Access

// Repository defines the data access contract for organizations and memberships.
type Repository interface {

	/*
		ListActiveByUser returns the user's active memberships in active
		organizations, oldest first.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []*Membership: Possibly empty slice
		  - error: Database retrieval failures
	*/
	ListActiveByUser(context context.Context, userID string) ([]*Membership, error)

	/*
		FindActive returns one active membership.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - organizationID: string

		Returns:
		  - *Membership: Hydrated entity
		  - error: apperr.NotFound when the user is not an active member
	*/
	FindActive(context context.Context, userID, organizationID string) (*Membership, error)

	/*
		CreateWithOwner persists a new organization and an owner membership
		for userID in a single transaction.

		Parameters:
		  - context: context.Context
		  - organization: *Organization
		  - userID: string

		Returns:
		  - *Membership: The owner membership
		  - error: Persistence failures
	*/
	CreateWithOwner(context context.Context, organization *Organization, userID string) (*Membership, error)
}
