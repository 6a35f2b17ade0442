package gate

import "strings"

// Action describes the kind of operation a user wants to perform on a table.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Permission represents an allowed action on a resource.
// Format: "resource:action" (e.g., "students:list", "fees:update")
type Permission string

// NewPermission creates a permission from resource and action.
func NewPermission(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

// Parse splits a permission into resource and action.
func (p Permission) Parse() (resource string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Wildcards for super permissions
const (
	WildcardAll   = "*"
	PermissionAll Permission = "*:*"
)

// Matches checks if this permission covers a requested permission.
// "*:*" matches everything, "students:*" matches every students action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionAll || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == WildcardAll
}
