package models

// Principal is the authenticated caller attached to a request.
// It is resolved by the auth middleware and passed explicitly into every service call.
type Principal struct {
	ID       uint
	Username string
	Role     Role
	Banned   bool
}

// IsAdmin reports whether the principal carries the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
