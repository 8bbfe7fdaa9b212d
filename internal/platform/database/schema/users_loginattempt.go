package schema

// UserLoginAttemptTable represents the 'users.loginattempt' table
type UserLoginAttemptTable struct {
	Table     string
	ID        string
	UserID    string
	Email     string
	IsSuccess string
	IPAddress string
	UserAgent string
	Reason    string
	CreatedAt string
}

// UserLoginAttempt is the schema definition for users.loginattempt
var UserLoginAttempt = UserLoginAttemptTable{
	Table:     "users.loginattempt",
	ID:        "id",
	UserID:    "userid",
	Email:     "email",
	IsSuccess: "issuccess",
	IPAddress: "ipaddress",
	UserAgent: "useragent",
	Reason:    "reason",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserLoginAttemptTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Email, t.IsSuccess, t.IPAddress, t.UserAgent, t.Reason, t.CreatedAt,
	}
}
