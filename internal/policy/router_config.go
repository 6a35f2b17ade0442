package policy

import (
	"log/slog"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/config"
	"github.com/diewo77/go-school/internal/handlers"
	"github.com/diewo77/go-school/internal/store"
	"github.com/diewo77/go-school/validation"
	"gorm.io/gorm"
)

// ownedTables are scoped to their owner for students and parents.
var ownedTables = []string{gate.TableStudents, gate.TableAttendance, gate.TableFees}

// RouterConfig holds the gates, the session provider and every handler of
// the application.
type RouterConfig struct {
	Guard    *Guard
	Profiles *gate.CachedResolver[uint]
	Sessions *auth.Provider
	Cookies  auth.Cookies

	AuthHandler      *handlers.AuthHandler
	DashboardHandler *handlers.DashboardHandler
	PendingHandler   *handlers.PendingHandler
	ApprovalHandler  *handlers.ApprovalHandler
	Resources        []handlers.ResourceHandler
}

// NewRouterConfig wires the authorization gate, the owner policies, the
// session provider and the handlers over db.
func NewRouterConfig(db *gorm.DB, cfg config.SessionConfig, log *slog.Logger) *RouterConfig {
	if log == nil {
		log = slog.Default()
	}

	authz := gate.NewAuthorizer(gate.DefaultGrants)
	owner := gate.OwnerPolicy{Roles: []gate.Role{gate.RoleStudent, gate.RoleParent}}
	for _, t := range ownedTables {
		authz.Register(t, owner)
	}
	guard := NewGuard(authz, owner, log)

	profileStore := store.NewProfiles(db)
	profiles := gate.NewCachedResolver[uint](profileStore, cfg.ProfileTTL, gate.WithStaleIfError(cfg.ProfileStale))
	sessions := auth.NewProvider(store.NewSessions(db), profiles, auth.Options{
		TTL:          cfg.TTL,
		Settle:       cfg.Settle,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       log.With("component", "sessions"),
	})
	cookies := auth.NewCookies(cfg.Secret, cfg.SecureCookie)
	v := validation.New()

	return &RouterConfig{
		Guard:            guard,
		Profiles:         profiles,
		Sessions:         sessions,
		Cookies:          cookies,
		AuthHandler:      handlers.NewAuthHandler(store.NewUsers(db), sessions, cookies, v),
		DashboardHandler: handlers.NewDashboardHandler(store.NewDashboard(db), guard),
		PendingHandler:   handlers.NewPendingHandler(profileStore),
		ApprovalHandler:  handlers.NewApprovalHandler(profileStore, sessions),
		Resources:        handlers.Resources(db, guard, v),
	}
}
