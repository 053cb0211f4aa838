package auth

import "slices"

// Permission represents a named capability.
type Permission string

// Permission constants.
const (
	PermStateRead   Permission = "state:read"
	PermStateIngest Permission = "state:ingest"
	PermStateReset  Permission = "state:reset"
)

// rolePermissions maps each role to its granted permissions.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermStateRead,
	},
	RoleOperator: {
		PermStateRead,
		PermStateIngest,
		PermStateReset,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}
