package schema

// UserCredentialTable represents the 'users.credential' table
type UserCredentialTable struct {
	Table             string
	ID                string
	UserID            string
	Provider          string
	PasswordHash      string
	IsLocked          string
	FailedAttempts    string
	LockedAt          string
	PasswordExpired   string
	PasswordChangedAt string
	CreatedAt         string
	UpdatedAt         string
}

// UserCredential is the schema definition for users.credential
var UserCredential = UserCredentialTable{
	Table:             "users.credential",
	ID:                "id",
	UserID:            "userid",
	Provider:          "provider",
	PasswordHash:      "passwordhash",
	IsLocked:          "islocked",
	FailedAttempts:    "failedattempts",
	LockedAt:          "lockedat",
	PasswordExpired:   "passwordexpired",
	PasswordChangedAt: "passwordchangedat",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
}

// Columns returns all standard column names
func (t UserCredentialTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Provider, t.PasswordHash, t.IsLocked, t.FailedAttempts,
		t.LockedAt, t.PasswordExpired, t.PasswordChangedAt, t.CreatedAt, t.UpdatedAt,
	}
}
