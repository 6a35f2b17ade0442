package main

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/handlers"
	"github.com/diewo77/go-school/internal/middleware"
	"github.com/diewo77/go-school/internal/policy"
	"github.com/diewo77/go-school/view"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	view.SetLangResolver(middleware.LangFrom)
	view.SetThemeResolver(middleware.ThemeFrom)
	view.SetCanResolver(func(r *http.Request, resource, action string) bool {
		return routerCfg.Guard.Can(r.Context(), gate.Action(action), resource, nil)
	})
	app.setupRoutes()

	// Outermost first: request id and logging, panic recovery, preferences,
	// then the session source every gate reads.
	var h http.Handler = app.mux
	h = auth.Middleware(routerCfg.Sessions, routerCfg.Cookies)(h)
	h = middleware.Prefs(h)
	h = middleware.Recover(logger)(h)
	h = middleware.Logging(logger)(h)
	app.handler = h
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	g := a.routerCfg.Guard
	access := func(acc gate.Access, h http.HandlerFunc) http.Handler {
		return g.RequireAccess(acc)(h)
	}
	roles := func(rs ...gate.Role) []gate.Role { return rs }

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler
	public := g.PublicOnly()

	a.mux.HandleFunc("GET /", handlers.Home)
	a.mux.Handle("GET /login", public(http.HandlerFunc(ah.LoginPage)))
	a.mux.Handle("POST /login", public(http.HandlerFunc(ah.Login)))
	a.mux.Handle("GET /signup", public(http.HandlerFunc(ah.SignupPage)))
	a.mux.Handle("POST /signup", public(http.HandlerFunc(ah.Signup)))
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /session/events", handlers.SessionEvents)

	// ─────────────────────────────────────────────────────────────────────────
	// Dashboards
	// ─────────────────────────────────────────────────────────────────────────
	dh := a.routerCfg.DashboardHandler

	a.mux.Handle("GET /dashboard", access(gate.Access{}, dh.Generic))
	a.mux.Handle("GET "+gate.PendingApprovalPath, access(gate.Access{}, a.routerCfg.PendingHandler.Show))
	a.mux.Handle("GET "+gate.DashboardPath(gate.RoleSuperAdmin),
		access(gate.Access{Roles: roles(gate.RoleSuperAdmin)}, dh.Role(gate.RoleSuperAdmin)))
	a.mux.Handle("GET "+gate.DashboardPath(gate.RoleAdmin),
		access(gate.Access{Roles: roles(gate.RoleAdmin)}, dh.Role(gate.RoleAdmin)))
	for _, r := range []gate.Role{gate.RoleTeacher, gate.RoleStudent, gate.RoleParent} {
		a.mux.Handle("GET "+gate.DashboardPath(r),
			access(gate.Access{Roles: roles(r), RequireApproval: true}, dh.Role(r)))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Approval queue (staff only)
	// ─────────────────────────────────────────────────────────────────────────
	aph := a.routerCfg.ApprovalHandler
	staff := gate.Access{Roles: roles(gate.RoleSuperAdmin, gate.RoleAdmin)}

	a.mux.Handle("GET /admin/approvals", access(staff, aph.List))
	a.mux.Handle("POST /admin/approvals/{id}/approve", access(staff, aph.Approve))
	a.mux.Handle("POST /admin/approvals/{id}/reject", access(staff, aph.Reject))

	// ─────────────────────────────────────────────────────────────────────────
	// School tables: HTML listing and JSON API
	// ─────────────────────────────────────────────────────────────────────────
	for _, rh := range a.routerCfg.Resources {
		name := rh.Name()
		table := func(action gate.Action, h http.HandlerFunc) http.Handler {
			return g.Table(name, action)(h)
		}
		a.mux.Handle("GET /"+name, table(gate.ActionList, rh.Page))
		a.mux.Handle("GET /api/"+name, table(gate.ActionList, rh.List))
		a.mux.Handle("POST /api/"+name, table(gate.ActionCreate, rh.Create))
		a.mux.Handle("GET /api/"+name+"/{id}", table(gate.ActionView, rh.Show))
		a.mux.Handle("PUT /api/"+name+"/{id}", table(gate.ActionUpdate, rh.Update))
		a.mux.Handle("DELETE /api/"+name+"/{id}", table(gate.ActionDelete, rh.Delete))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Health and static files
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.Health(a.db)
	a.mux.HandleFunc("GET /health", health)
	a.mux.HandleFunc("GET /healthz", health)
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
}
