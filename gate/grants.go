package gate

// Tables exposed to the portal. Each name is the resource half of a Permission.
const (
	TableStudents   = "students"
	TableTeachers   = "teachers"
	TableClasses    = "classes"
	TableAttendance = "attendance"
	TableFees       = "fees"
	TableNotices    = "notices"
	TableTimetable  = "timetable"
	TableEnquiries  = "enquiries"
	TableVisitors   = "visitors"
	TableSalaries   = "salaries"
)

// Tables lists every school table in menu order.
var Tables = []string{
	TableStudents, TableTeachers, TableClasses, TableAttendance, TableFees,
	TableNotices, TableTimetable, TableEnquiries, TableVisitors, TableSalaries,
}

// Grants maps a role to the permissions it holds. A role missing from the
// map, RoleUnknown included, holds nothing.
type Grants map[Role][]Permission

func readOnly(resources ...string) []Permission {
	perms := make([]Permission, 0, 2*len(resources))
	for _, res := range resources {
		perms = append(perms, NewPermission(res, ActionList), NewPermission(res, ActionView))
	}
	return perms
}

func allOf(resources ...string) []Permission {
	perms := make([]Permission, 0, len(resources))
	for _, res := range resources {
		perms = append(perms, Permission(res+":"+WildcardAll))
	}
	return perms
}

// DefaultGrants is the school's permission table.
var DefaultGrants = Grants{
	RoleSuperAdmin: {PermissionAll},
	RoleAdmin:      allOf(Tables...),
	RoleTeacher: append(
		readOnly(TableStudents, TableTeachers, TableClasses, TableNotices, TableTimetable),
		allOf(TableAttendance)...,
	),
	RoleStudent: readOnly(TableClasses, TableNotices, TableTimetable, TableAttendance, TableFees),
	RoleParent:  readOnly(TableStudents, TableNotices, TableTimetable, TableAttendance, TableFees),
}

// Allows reports whether role r holds a permission covering requested.
func (g Grants) Allows(r Role, requested Permission) bool {
	for _, perm := range g[r] {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// RolesFor returns the roles allowed to perform action on resource, in
// KnownRoles order.
func (g Grants) RolesFor(resource string, action Action) []Role {
	requested := NewPermission(resource, action)
	var roles []Role
	for _, r := range KnownRoles {
		if g.Allows(r, requested) {
			roles = append(roles, r)
		}
	}
	return roles
}
