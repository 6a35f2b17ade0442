package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/httpx"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("content"))
})

func newTestGuard() *Guard {
	authz := gate.NewAuthorizer(gate.DefaultGrants)
	owner := gate.OwnerPolicy{Roles: []gate.Role{gate.RoleStudent, gate.RoleParent}}
	for _, t := range ownedTables {
		authz.Register(t, owner)
	}
	return NewGuard(authz, owner, nil)
}

func signedIn(uid uint, role gate.Role, approved bool) gate.Source {
	return gate.StaticSource{Snap: gate.Snapshot{
		Session: &gate.Session{UserID: uid},
		Profile: &gate.Profile{UserID: uid, Role: role, Approved: approved},
	}}
}

func request(method, target string, src gate.Source) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if src != nil {
		req = req.WithContext(auth.WithSource(req.Context(), src))
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequireAccess_Redirects(t *testing.T) {
	g := newTestGuard()
	teacherOnly := g.RequireAccess(gate.Access{Roles: []gate.Role{gate.RoleTeacher}, RequireApproval: true})(okHandler)

	tests := []struct {
		name     string
		src      gate.Source
		location string
	}{
		{"anonymous goes to login with next", nil, "/login?next=%2Fteacher%2Fdashboard%3Ftab%3D1"},
		{"other role goes to its dashboard", signedIn(1, gate.RoleAdmin, true), "/admin/dashboard"},
		{"unapproved teacher waits", signedIn(2, gate.RoleTeacher, false), gate.PendingApprovalPath},
		{"unknown role gets generic dashboard", signedIn(3, gate.RoleUnknown, true), gate.DefaultDashboard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(teacherOnly, request(http.MethodGet, "/teacher/dashboard?tab=1", tt.src))
			if rr.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rr.Code)
			}
			if got := rr.Header().Get("Location"); got != tt.location {
				t.Errorf("location = %q, want %q", got, tt.location)
			}
			if strings.Contains(rr.Body.String(), "content") {
				t.Error("protected content leaked into redirect")
			}
		})
	}
}

func TestRequireAccess_RendersApprovedRole(t *testing.T) {
	g := newTestGuard()
	h := g.RequireAccess(gate.Access{Roles: []gate.Role{gate.RoleTeacher}, RequireApproval: true})(okHandler)
	rr := serve(h, request(http.MethodGet, "/teacher/dashboard", signedIn(2, gate.RoleTeacher, true)))
	if rr.Code != http.StatusOK || rr.Body.String() != "content" {
		t.Fatalf("expected content, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestRequireAccess_LoadingJSON(t *testing.T) {
	g := newTestGuard()
	h := g.RequireAccess(gate.Access{})(okHandler)
	src := gate.StaticSource{Snap: gate.Snapshot{Loading: true}}
	rr := serve(h, request(http.MethodGet, "/api/students", src))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "1" || rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("missing loading headers: %v", rr.Header())
	}
	var body httpx.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != string(gate.ReasonLoading) {
		t.Errorf("error = %q", body.Error)
	}
}

func TestRequireAccess_MissingProfileHeldBack(t *testing.T) {
	g := newTestGuard()
	src := gate.StaticSource{Snap: gate.Snapshot{Session: &gate.Session{UserID: 9}}}

	gated := g.RequireAccess(gate.Access{RequireApproval: true})(okHandler)
	rr := serve(gated, request(http.MethodGet, "/api/x", src))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("approval gate without profile: expected 503, got %d", rr.Code)
	}

	open := g.RequireAccess(gate.Access{})(okHandler)
	rr = serve(open, request(http.MethodGet, "/pending-approval", src))
	if rr.Code != http.StatusOK {
		t.Fatalf("session-only gate: expected 200, got %d", rr.Code)
	}
}

func TestRequireAccess_UnauthenticatedJSON(t *testing.T) {
	g := newTestGuard()
	h := g.RequireAccess(gate.Access{})(okHandler)
	rr := serve(h, request(http.MethodGet, "/api/notices", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"location":"/login?next=%2Fapi%2Fnotices"`) {
		t.Errorf("body should carry the login location: %s", rr.Body.String())
	}
}

func TestPublicOnly(t *testing.T) {
	g := newTestGuard()
	h := g.PublicOnly()(okHandler)

	rr := serve(h, request(http.MethodGet, "/login", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("anonymous: expected 200, got %d", rr.Code)
	}
	rr = serve(h, request(http.MethodGet, "/login", signedIn(4, gate.RoleParent, false)))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/parent/dashboard" {
		t.Fatalf("signed in: expected 303 to parent dashboard, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestTable(t *testing.T) {
	g := newTestGuard()
	fees := g.Table(gate.TableFees, gate.ActionList)(okHandler)

	rr := serve(fees, request(http.MethodGet, "/fees", signedIn(5, gate.RoleParent, true)))
	if rr.Code != http.StatusOK {
		t.Errorf("parent listing fees: expected 200, got %d", rr.Code)
	}
	rr = serve(fees, request(http.MethodGet, "/fees", signedIn(6, gate.RoleTeacher, true)))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/teacher/dashboard" {
		t.Errorf("teacher listing fees: expected redirect to dashboard, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	create := g.Table(gate.TableFees, gate.ActionCreate)(okHandler)
	rr = serve(create, request(http.MethodPost, "/api/fees", signedIn(5, gate.RoleParent, true)))
	if rr.Code != http.StatusForbidden {
		t.Errorf("parent creating fees: expected 403, got %d", rr.Code)
	}
	rr = serve(create, request(http.MethodPost, "/api/fees", signedIn(1, gate.RoleSuperAdmin, true)))
	if rr.Code != http.StatusOK {
		t.Errorf("super admin creating fees: expected 200, got %d", rr.Code)
	}
}

func TestOwnerFilter(t *testing.T) {
	g := newTestGuard()
	ctxFor := func(src gate.Source) context.Context {
		return auth.WithSource(context.Background(), src)
	}

	if got := g.OwnerFilter(ctxFor(signedIn(7, gate.RoleParent, true)), gate.TableFees); got != 7 {
		t.Errorf("parent fees filter = %d, want 7", got)
	}
	if got := g.OwnerFilter(ctxFor(signedIn(8, gate.RoleTeacher, true)), gate.TableAttendance); got != 0 {
		t.Errorf("teacher attendance filter = %d, want 0", got)
	}
	if got := g.OwnerFilter(ctxFor(signedIn(7, gate.RoleParent, true)), gate.TableNotices); got != 0 {
		t.Errorf("notices are not owned, filter = %d", got)
	}
	if got := g.OwnerFilter(context.Background(), gate.TableFees); got != 0 {
		t.Errorf("anonymous filter = %d", got)
	}
}
