package gate

import (
	"context"
	"slices"
)

// Policy defines row-level rules for a table. It runs after the grant check
// passed, only when a concrete row is at hand.
type Policy interface {
	// Can returns true if the profile may perform action on row.
	Can(ctx context.Context, p Profile, action Action, row any) bool
}

// Owned is implemented by rows that belong to one or more users.
type Owned interface {
	OwnedBy(userID uint) bool
}

// OwnerPolicy restricts the listed roles to rows they own. Other roles pass.
type OwnerPolicy struct {
	Roles []Role
}

// Can denies rows that do not implement Owned for restricted roles.
func (o OwnerPolicy) Can(_ context.Context, p Profile, _ Action, row any) bool {
	if !slices.Contains(o.Roles, p.Role) {
		return true
	}
	owned, ok := row.(Owned)
	return ok && owned.OwnedBy(p.UserID)
}

// Restricts reports whether rows must be scoped to their owner for role r.
func (o OwnerPolicy) Restricts(r Role) bool {
	return slices.Contains(o.Roles, r)
}
