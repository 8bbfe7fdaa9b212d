package schema

// UserSessionTable represents the 'users.session' table
type UserSessionTable struct {
	Table         string
	ID            string
	UserID        string
	TokenHash     string
	FamilyID      string
	UserAgent     string
	IPAddress     string
	ExpiresAt     string
	IsRevoked     string
	RevokedReason string
	RevokedAt     string
	CreatedAt     string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:         "users.session",
	ID:            "id",
	UserID:        "userid",
	TokenHash:     "tokenhash",
	FamilyID:      "familyid",
	UserAgent:     "useragent",
	IPAddress:     "ipaddress",
	ExpiresAt:     "expiresat",
	IsRevoked:     "isrevoked",
	RevokedReason: "revokedreason",
	RevokedAt:     "revokedat",
	CreatedAt:     "createdat",
}

// Columns returns all standard column names
func (t UserSessionTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.TokenHash, t.FamilyID, t.UserAgent, t.IPAddress,
		t.ExpiresAt, t.IsRevoked, t.RevokedReason, t.RevokedAt, t.CreatedAt,
	}
}
