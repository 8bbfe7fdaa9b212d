package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table        string
	ID           string
	Email        string
	DisplayName  string
	IsActive     string
	LastAccessAt string
	CreatedAt    string
	UpdatedAt    string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:        "users.account",
	ID:           "id",
	Email:        "email",
	DisplayName:  "displayname",
	IsActive:     "isactive",
	LastAccessAt: "lastaccessat",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.DisplayName, t.IsActive, t.LastAccessAt, t.CreatedAt, t.UpdatedAt,
	}
}
