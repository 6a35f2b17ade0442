package gate

import "strings"

// Role is the closed set of account categories that decide which dashboard
// and which tables a user may reach. RoleUnknown is the explicit catch-all:
// any value that is not one of the named roles parses to it.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
	RoleUnknown    Role = "unknown"
)

// DefaultDashboard is the landing path for roles without a dedicated dashboard.
const DefaultDashboard = "/dashboard"

// KnownRoles lists the named roles, most privileged first.
var KnownRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

// ParseRole maps a stored value to a Role. Matching ignores surrounding
// whitespace and case; anything else yields RoleUnknown.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return r
	default:
		return RoleUnknown
	}
}

// Known reports whether r is one of the named roles.
func (r Role) Known() bool {
	return ParseRole(string(r)) == r && r != RoleUnknown
}

// IsStaff reports whether r administers the school (super admins and admins).
func (r Role) IsStaff() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// DashboardPath returns the canonical landing path for a role.
func DashboardPath(r Role) string {
	switch r {
	case RoleSuperAdmin:
		return "/super-admin/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleTeacher:
		return "/teacher/dashboard"
	case RoleStudent:
		return "/student/dashboard"
	case RoleParent:
		return "/parent/dashboard"
	default:
		return DefaultDashboard
	}
}
