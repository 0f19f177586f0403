package user

type Role string

const (
	RoleAdmin   Role = "admin"   // Organization-wide access
	RoleManager Role = "manager" // Sees own department
	RoleUser    Role = "user"    // Sees own records only
)

// ParseRole returns the Role for s, or false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleUser:
		return r, true
	default:
		return "", false
	}
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID     string
	Role       Role
	Department string
}
