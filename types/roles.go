package types

// Roles assignable to a user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// roleRights maps each role to its permission rights. Populated once at
// process start and read-only thereafter.
var roleRights = map[string][]string{
	RoleUser:  {},
	RoleAdmin: {"getUsers", "manageUsers"},
}

// ValidRole reports whether the given role is assignable.
func ValidRole(role string) bool {
	_, ok := roleRights[role]
	return ok
}

// RightsForRole returns the rights granted to a role. Unknown roles have none.
func RightsForRole(role string) []string {
	return roleRights[role]
}

// HasRight reports whether the role grants the named right.
func HasRight(role, right string) bool {
	for _, r := range roleRights[role] {
		if r == right {
			return true
		}
	}
	return false
}
