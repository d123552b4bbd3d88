package domain

import "strings"

// Role is the coarse permission level of a user.
type Role string

const (
	RolePublic Role = "public"
	RoleExpert Role = "expert"
	RoleAdmin  Role = "admin"
)

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RolePublic, RoleExpert, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }
