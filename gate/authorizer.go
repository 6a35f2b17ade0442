package gate

import "context"

// Authorizer combines role grants with table-specific policies.
// Authorization flow:
//  1. The profile must be present and approved, unless it belongs to staff
//  2. The profile's role must hold resource:action
//  3. If a table policy exists and a row is provided, the policy must agree
type Authorizer struct {
	grants   Grants
	policies map[string]Policy
}

// NewAuthorizer creates an authorizer over the given grant table.
func NewAuthorizer(grants Grants) *Authorizer {
	return &Authorizer{
		grants:   grants,
		policies: make(map[string]Policy),
	}
}

// Register adds a table-specific policy for row checks.
func (a *Authorizer) Register(resource string, p Policy) {
	a.policies[resource] = p
}

// Policy returns the policy registered for resource, if any.
func (a *Authorizer) Policy(resource string) (Policy, bool) {
	p, ok := a.policies[resource]
	return p, ok
}

// Authorize returns ErrUnauthorized unless p may perform action on resource.
// row may be nil for list and create checks.
func (a *Authorizer) Authorize(ctx context.Context, p *Profile, action Action, resource string, row any) error {
	if p == nil || p.UserID == 0 {
		return ErrUnauthorized
	}
	if !p.Approved && !p.Role.IsStaff() {
		return ErrNotApproved
	}
	if !a.grants.Allows(p.Role, NewPermission(resource, action)) {
		return ErrUnauthorized
	}
	if row != nil {
		if policy, ok := a.policies[resource]; ok && !policy.Can(ctx, *p, action, row) {
			return ErrUnauthorized
		}
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (a *Authorizer) Can(ctx context.Context, p *Profile, action Action, resource string, row any) bool {
	return a.Authorize(ctx, p, action, resource, row) == nil
}

// Grants returns the grant table the authorizer checks against.
func (a *Authorizer) Grants() Grants { return a.grants }
