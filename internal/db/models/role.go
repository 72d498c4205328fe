package models

// Role is the authorization level of an identity.
type Role string

const (
	// RoleAdmin may manage identities and archive scopes.
	RoleAdmin Role = "admin"
	// RoleUser may read and write settings.
	RoleUser Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}
