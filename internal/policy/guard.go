package policy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/httpx"
	"github.com/diewo77/go-school/view"
)

// loadingRetryAfter is the Retry-After hint sent with the loading placeholder, in seconds.
const loadingRetryAfter = 1

// Guard turns gate decisions into HTTP answers. HTML clients get 303
// redirects or the loading page; JSON clients get status codes.
type Guard struct {
	Authz *gate.Authorizer
	Owner gate.OwnerPolicy
	Log   *slog.Logger
}

// NewGuard creates a guard checking table permissions with authz.
func NewGuard(authz *gate.Authorizer, owner gate.OwnerPolicy, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{Authz: authz, Owner: owner, Log: log}
}

// RequireAccess returns middleware that evaluates a on every request.
func (g *Guard) RequireAccess(a gate.Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := gate.Take(auth.SourceFromContext(r.Context()))
			g.apply(w, r, a.Evaluate(snap, httpx.RequestURI(r)), next)
		})
	}
}

// PublicOnly returns middleware that keeps signed-in users off public pages.
func (g *Guard) PublicOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := gate.Take(auth.SourceFromContext(r.Context()))
			g.apply(w, r, gate.Public{}.Evaluate(snap), next)
		})
	}
}

// RequirePermission returns middleware that checks the grant table.
// Row-level checks are left to the handler, which has the row.
func (g *Guard) RequirePermission(resource string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			prof, _ := auth.ProfileFromContext(r.Context())
			err := g.Authz.Authorize(r.Context(), prof, action, resource, nil)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			if errors.Is(err, gate.ErrNotApproved) {
				g.apply(w, r, gate.Decision{Kind: gate.KindRedirect, Reason: gate.ReasonNotApproved, Location: gate.PendingApprovalPath}, next)
				return
			}
			g.Log.Info("permission denied", "resource", resource, "action", action, "path", r.URL.Path)
			Forbidden(w, r)
		})
	}
}

// Table guards a school table: the roles granted action on resource are
// admitted once approved, then the grant table is checked again with the
// exact profile.
func (g *Guard) Table(resource string, action gate.Action) func(http.Handler) http.Handler {
	access := gate.Access{
		Roles:           g.Authz.Grants().RolesFor(resource, action),
		RequireApproval: true,
	}
	outer := g.RequireAccess(access)
	inner := g.RequirePermission(resource, action)
	return func(next http.Handler) http.Handler {
		return outer(inner(next))
	}
}

// Can reports whether the request's profile may perform action on resource.
// row may be nil.
func (g *Guard) Can(ctx context.Context, action gate.Action, resource string, row any) bool {
	prof, _ := auth.ProfileFromContext(ctx)
	return g.Authz.Can(ctx, prof, action, resource, row)
}

// OwnerFilter returns the user id listings of resource must be scoped to,
// or 0 when the profile sees every row.
func (g *Guard) OwnerFilter(ctx context.Context, resource string) uint {
	if _, ok := g.Authz.Policy(resource); !ok {
		return 0
	}
	prof, ok := auth.ProfileFromContext(ctx)
	if !ok || !g.Owner.Restricts(prof.Role) {
		return 0
	}
	return prof.UserID
}

// Forbidden answers 403 in the client's format.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	view.Error(w, r, http.StatusForbidden, "error.forbidden")
}

func (g *Guard) apply(w http.ResponseWriter, r *http.Request, d gate.Decision, next http.Handler) {
	switch d.Kind {
	case gate.KindRender:
		next.ServeHTTP(w, r)
	case gate.KindLoading:
		g.loading(w, r, d)
	case gate.KindRedirect:
		g.redirect(w, r, d)
	}
}

func (g *Guard) loading(w http.ResponseWriter, r *http.Request, d gate.Decision) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", strconv.Itoa(loadingRetryAfter))
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusServiceUnavailable, string(d.Reason), nil)
		return
	}
	data := map[string]any{
		"Title":      "loading.title",
		"Reason":     string(d.Reason),
		"Current":    httpx.RequestURI(r),
		"RetryAfter": loadingRetryAfter,
	}
	if err := view.Render(w, r, "loading.html", data); err != nil {
		g.Log.Error("render loading page", "err", err)
		http.Error(w, "Loading", http.StatusServiceUnavailable)
	}
}

func (g *Guard) redirect(w http.ResponseWriter, r *http.Request, d gate.Decision) {
	if httpx.WantsJSON(r) {
		status := http.StatusForbidden
		if d.Reason == gate.ReasonUnauthenticated {
			status = http.StatusUnauthorized
		}
		httpx.JSONError(w, status, string(d.Reason), map[string]string{"location": d.Location})
		return
	}
	// 303 makes the browser replace the gated URL with the target.
	http.Redirect(w, r, d.Location, http.StatusSeeOther)
}
