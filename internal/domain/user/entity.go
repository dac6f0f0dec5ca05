package user

type Role string

const (
	RoleAdmin Role = "admin" // HR staff - manages leave, years and balances
	RoleUser  Role = "user"  // Regular employee - reads own records
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Principal is the caller identity carried in the access token.
type Principal struct {
	UserID     string
	EmployeeID *string
	Role       Role
}

// IsAdmin checks if principal has the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessEmployee checks if principal may read the given employee's leave data
func (p Principal) CanAccessEmployee(employeeID string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.EmployeeID != nil && *p.EmployeeID == employeeID
}
