package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func uptr(v uint) *uint { return &v }

func TestUsers_CreateAndAuthenticate(t *testing.T) {
	users := NewUsers(setupDB(t))
	ctx := context.Background()

	u, err := users.Create(ctx, NewAccount{Email: "Ada@School.test", Password: "pa55word", FullName: "Ada", Role: gate.RoleTeacher})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Profile == nil || u.Profile.IsApproved {
		t.Fatalf("expected pending profile, got %+v", u.Profile)
	}

	if _, err := users.Create(ctx, NewAccount{Email: "ada@school.test", Password: "x", Role: gate.RoleParent}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email: expected ErrConflict, got %v", err)
	}

	got, err := users.Authenticate(ctx, "ada@school.test", "pa55word")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID || got.Profile == nil {
		t.Errorf("unexpected user %+v", got)
	}
	if _, err := users.Authenticate(ctx, "ada@school.test", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody@school.test", "pa55word"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestProfiles_ResolveAndApprove(t *testing.T) {
	conn := setupDB(t)
	users := NewUsers(conn)
	profiles := NewProfiles(conn)
	ctx := context.Background()

	u, err := users.Create(ctx, NewAccount{Email: "s@school.test", Password: "pw", Role: gate.RoleStudent})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := profiles.Resolve(ctx, u.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Role != gate.RoleStudent || p.Approved {
		t.Errorf("unexpected profile %+v", p)
	}
	if _, err := profiles.Resolve(ctx, 9999); !errors.Is(err, gate.ErrNoProfile) {
		t.Errorf("missing user: expected ErrNoProfile, got %v", err)
	}

	pending, err := profiles.Pending(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %d, %v", len(pending), err)
	}
	if pending[0].User == nil || pending[0].User.Email != "s@school.test" {
		t.Errorf("pending user not preloaded: %+v", pending[0].User)
	}

	approved, err := profiles.Approve(ctx, pending[0].ID, 1)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.IsApproved || approved.ApprovedBy == nil || *approved.ApprovedBy != 1 {
		t.Errorf("unexpected approved profile %+v", approved)
	}
	if pending, _ := profiles.Pending(ctx); len(pending) != 0 {
		t.Errorf("queue should be empty, got %d", len(pending))
	}

	rejected, err := profiles.Reject(ctx, approved.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.IsApproved || rejected.RejectedAt == nil {
		t.Errorf("unexpected rejected profile %+v", rejected)
	}

	if _, err := profiles.Approve(ctx, 4242, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown profile: expected ErrNotFound, got %v", err)
	}
}

func TestSessions_Store(t *testing.T) {
	s := NewSessions(setupDB(t))
	ctx := context.Background()
	now := time.Now()

	live := auth.StoredSession{TokenHash: auth.HashToken("a"), UserID: 1, ExpiresAt: now.Add(time.Hour)}
	old := auth.StoredSession{TokenHash: auth.HashToken("b"), UserID: 1, ExpiresAt: now.Add(-time.Hour)}
	other := auth.StoredSession{TokenHash: auth.HashToken("c"), UserID: 2, ExpiresAt: now.Add(time.Hour)}
	for _, sess := range []auth.StoredSession{live, old, other} {
		if err := s.Create(ctx, sess); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.Find(ctx, live.TokenHash)
	if err != nil || got.UserID != 1 {
		t.Fatalf("find = %+v, %v", got, err)
	}
	if _, err := s.Find(ctx, "nope"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	n, err := s.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Errorf("DeleteExpired = %d, %v", n, err)
	}
	if err := s.DeleteForUser(ctx, 2); err != nil {
		t.Fatalf("DeleteForUser: %v", err)
	}
	if _, err := s.Find(ctx, other.TokenHash); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Error("user 2 session should be gone")
	}
	if err := s.Delete(ctx, live.TokenHash); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Find(ctx, live.TokenHash); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Error("deleted session still found")
	}
}

func TestTable_ListSearchAndPaging(t *testing.T) {
	students := NewTable[models.Student](setupDB(t), TableOptions{
		Search: []string{"full_name", "admission_no"},
		Order:  "admission_no ASC",
		Owner:  OwnedByStudentAccount,
	})
	ctx := context.Background()
	names := []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"}
	for i, n := range names {
		row := &models.Student{AdmissionNo: string(rune('A' + i)), FullName: n, ParentUserID: uptr(uint(10 + i%2))}
		if err := students.Create(ctx, row); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}

	page, err := students.List(ctx, Query{PerPage: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || page.Pages() != 2 {
		t.Errorf("page = total %d items %d pages %d", page.Total, len(page.Items), page.Pages())
	}
	if page.Items[0].FullName != "Ada Lovelace" {
		t.Errorf("order: first = %q", page.Items[0].FullName)
	}

	page, _ = students.List(ctx, Query{Search: "TURING"})
	if page.Total != 1 || page.Items[0].FullName != "Alan Turing" {
		t.Errorf("search = %+v", page.Items)
	}

	page, _ = students.List(ctx, Query{OwnerID: 10})
	if page.Total != 2 {
		t.Errorf("owner 10 should see 2 students, got %d", page.Total)
	}
	page, _ = students.List(ctx, Query{OwnerID: 10, Search: "grace"})
	if page.Total != 1 {
		t.Errorf("owner and search combined: got %d", page.Total)
	}
}

func TestTable_CRUD(t *testing.T) {
	conn := setupDB(t)
	students := NewTable[models.Student](conn, TableOptions{})
	fees := NewTable[models.Fee](conn, TableOptions{Preload: []string{"Student"}, Owner: OwnedViaStudent})
	ctx := context.Background()

	st := &models.Student{AdmissionNo: "S1", FullName: "Kid", UserID: uptr(21), ParentUserID: uptr(22)}
	if err := students.Create(ctx, st); err != nil {
		t.Fatalf("create student: %v", err)
	}
	if err := students.Create(ctx, &models.Student{AdmissionNo: "S1", FullName: "Dup"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate admission: expected ErrConflict, got %v", err)
	}

	fee := &models.Fee{StudentID: st.ID, Description: "Term 1", AmountCents: 50000, DueDate: time.Now()}
	if err := fees.Create(ctx, fee); err != nil {
		t.Fatalf("create fee: %v", err)
	}
	got, err := fees.Get(ctx, fee.ID)
	if err != nil {
		t.Fatalf("get fee: %v", err)
	}
	if !got.OwnedBy(22) || got.OwnedBy(23) {
		t.Error("fee ownership should follow the preloaded student")
	}

	page, _ := fees.List(ctx, Query{OwnerID: 21})
	if page.Total != 1 {
		t.Errorf("student should see their fee, got %d", page.Total)
	}
	page, _ = fees.List(ctx, Query{OwnerID: 99})
	if page.Total != 0 {
		t.Errorf("stranger should see nothing, got %d", page.Total)
	}

	now := time.Now()
	got.PaidAt = &now
	if err := fees.Update(ctx, fee.ID, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := fees.Get(ctx, fee.ID)
	if !again.Paid() || again.AmountCents != 50000 {
		t.Errorf("fee should be paid after update, got %+v", again)
	}
	if err := fees.Update(ctx, 9999, got); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}

	if err := fees.Delete(ctx, fee.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := fees.Get(ctx, fee.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted fee: expected ErrNotFound, got %v", err)
	}
	if err := fees.Delete(ctx, fee.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := students.List(ctx, Query{OwnerID: 1}); err == nil {
		t.Error("owner filter on unscoped table should fail")
	}
}
