package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/store"
)

const dashboardNotices = 5

// DashboardHandler serves the generic and per-role dashboards.
type DashboardHandler struct {
	data  *store.Dashboard
	authz Authorizer
}

func NewDashboardHandler(data *store.Dashboard, authz Authorizer) *DashboardHandler {
	return &DashboardHandler{data: data, authz: authz}
}

// Generic forwards known roles to their own dashboard and renders a plain
// landing page for everyone else.
func (h *DashboardHandler) Generic(w http.ResponseWriter, r *http.Request) {
	prof, ok := currentProfile(r)
	if ok && prof.Role.Known() {
		http.Redirect(w, r, gate.DashboardPath(prof.Role), http.StatusSeeOther)
		return
	}
	render(w, r, "dashboard.html", map[string]any{
		"Title":   "dashboard.title",
		"Generic": true,
	})
}

// Role renders the dashboard of role. The route's gate has already checked
// that the signed-in profile holds it.
func (h *DashboardHandler) Role(role gate.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prof, _ := currentProfile(r)
		ctx := r.Context()

		var tables []string
		for _, t := range gate.Tables {
			if h.authz.Can(ctx, gate.ActionList, t, nil) {
				tables = append(tables, t)
			}
		}
		data := map[string]any{
			"Title":   "dashboard.title",
			"Role":    role,
			"Profile": prof,
			"Tables":  tables,
		}

		notices, err := h.data.Notices(ctx, role, dashboardNotices)
		if err != nil {
			slog.Error("dashboard notices", "role", role, "err", err)
		}
		data["Notices"] = notices

		if role.IsStaff() {
			counts, err := h.data.Counts(ctx, tables)
			if err != nil {
				slog.Error("dashboard counts", "role", role, "err", err)
			}
			data["Counts"] = counts
		}
		render(w, r, "dashboard.html", data)
	}
}
