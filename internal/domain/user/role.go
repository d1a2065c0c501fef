package user

import "strings"

// Role identifies a permission group a user belongs to.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleManager  Role = "Manager"
	RoleAdmin    Role = "Admin"
)

// ParseRoles converts raw role names from a request or a store row.
// Order is kept. Blank names are rejected because a role must be present,
// any other value is accepted as-is.
func ParseRoles(raw []string) ([]Role, error) {
	if len(raw) == 0 {
		return nil, ErrMissingFields
	}
	roles := make([]Role, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			return nil, ErrMissingFields
		}
		roles = append(roles, Role(s))
	}
	return roles, nil
}

// RoleStrings is the inverse of ParseRoles.
func RoleStrings(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
