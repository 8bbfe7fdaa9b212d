package schema

// TenancyOrganizationTable represents the 'tenancy.organization' table
type TenancyOrganizationTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	IsActive  string
	CreatedAt string
}

// TenancyOrganization is the schema definition for tenancy.organization
var TenancyOrganization = TenancyOrganizationTable{
	Table:     "tenancy.organization",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	IsActive:  "isactive",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t TenancyOrganizationTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.IsActive, t.CreatedAt,
	}
}
