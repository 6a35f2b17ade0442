package gate

import "errors"

// Sentinel errors returned by Authorizer.Authorize and the resolvers.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotApproved  = errors.New("profile not approved")
	ErrNoProfile    = errors.New("no profile for user")
)
