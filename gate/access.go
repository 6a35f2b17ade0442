package gate

import (
	"net/url"
	"slices"
)

// Well-known locations the gates redirect to.
const (
	LoginPath           = "/login"
	PendingApprovalPath = "/pending-approval"
	// NextParam carries the originally requested location to the login page.
	NextParam = "next"
)

// Kind is the outcome class of a gate evaluation.
type Kind int

const (
	// KindRender admits the request: the wrapped content is rendered unchanged.
	KindRender Kind = iota
	// KindLoading renders the loading placeholder instead of the content.
	KindLoading
	// KindRedirect replaces the current location with Decision.Location.
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindLoading:
		return "loading"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Reason explains a decision. It is stable and safe to expose to API clients.
type Reason string

const (
	ReasonAdmitted        Reason = "admitted"
	ReasonLoading         Reason = "session_loading"
	ReasonProfileMissing  Reason = "profile_missing"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonRoleMismatch    Reason = "role_mismatch"
	ReasonNotApproved     Reason = "approval_pending"
	ReasonAuthenticated   Reason = "already_authenticated"
)

// Decision is what a gate tells its caller to do. Redirects always replace the
// current location; they never add a navigation step the user can go back to.
type Decision struct {
	Kind     Kind
	Reason   Reason
	Location string
	// Next is the location the login flow should return to, set on
	// unauthenticated redirects only.
	Next string
}

func render() Decision { return Decision{Kind: KindRender, Reason: ReasonAdmitted} }

func loading(reason Reason) Decision { return Decision{Kind: KindLoading, Reason: reason} }

func redirect(reason Reason, location string) Decision {
	return Decision{Kind: KindRedirect, Reason: reason, Location: location}
}

// LoginLocation builds the login path carrying next as the return location.
// An empty next yields the bare login path.
func LoginLocation(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{NextParam: {next}}.Encode()
}

// Access guards protected content. The zero value only requires a session.
type Access struct {
	// Roles, when non-empty, is the allow-list of roles admitted.
	Roles []Role
	// RequireApproval keeps unapproved non-admin profiles out.
	RequireApproval bool
}

// Evaluate decides what to do for requested (path and query of the current
// request) given snap. Rules are checked in order and the first match wins.
func (a Access) Evaluate(snap Snapshot, requested string) Decision {
	if snap.Loading {
		return loading(ReasonLoading)
	}
	if !snap.Authenticated() {
		d := redirect(ReasonUnauthenticated, LoginLocation(requested))
		d.Next = requested
		return d
	}
	if p := snap.Profile; p != nil {
		if len(a.Roles) > 0 && !slices.Contains(a.Roles, p.Role) {
			return redirect(ReasonRoleMismatch, DashboardPath(p.Role))
		}
		if a.RequireApproval && !p.Approved && p.Role != RoleAdmin {
			return redirect(ReasonNotApproved, PendingApprovalPath)
		}
		return render()
	}
	// A live session without a profile is held back whenever this gate was
	// asked to check the profile.
	if len(a.Roles) > 0 || a.RequireApproval {
		return loading(ReasonProfileMissing)
	}
	return render()
}

// Public guards public-only content such as the login page.
type Public struct{}

// Evaluate sends sessions that already carry a profile to their dashboard.
func (Public) Evaluate(snap Snapshot) Decision {
	if snap.Loading {
		return loading(ReasonLoading)
	}
	if snap.Authenticated() && snap.Profile != nil {
		return redirect(ReasonAuthenticated, DashboardPath(snap.Profile.Role))
	}
	return render()
}
