package schema

// TenancyMembershipTable represents the 'tenancy.membership' table
type TenancyMembershipTable struct {
	Table          string
	UserID         string
	OrganizationID string
	Role           string
	IsActive       string
	CreatedAt      string
}

// TenancyMembership is the schema definition for tenancy.membership
var TenancyMembership = TenancyMembershipTable{
	Table:          "tenancy.membership",
	UserID:         "userid",
	OrganizationID: "organizationid",
	Role:           "role",
	IsActive:       "isactive",
	CreatedAt:      "createdat",
}

// Columns returns all standard column names
func (t TenancyMembershipTable) Columns() []string {
	return []string{
		t.UserID, t.OrganizationID, t.Role, t.IsActive, t.CreatedAt,
	}
}
