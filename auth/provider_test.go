package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
)

// blockingResolver holds every resolution until release is closed.
type blockingResolver struct {
	release chan struct{}
	profile gate.Profile
}

func (b *blockingResolver) Resolve(ctx context.Context, _ uint) (gate.Profile, error) {
	select {
	case <-b.release:
		return b.profile, nil
	case <-ctx.Done():
		return gate.Profile{}, ctx.Err()
	}
}

func newProvider(t *testing.T, r gate.ProfileResolver[uint], opts auth.Options) (*auth.Provider, *auth.MemoryStore) {
	t.Helper()
	store := auth.NewMemoryStore()
	return auth.NewProvider(store, r, opts), store
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProvider_SignInResolvesProfile(t *testing.T) {
	res := gate.NewStaticResolver[uint]()
	res.Set(1, gate.Profile{UserID: 1, Role: gate.RoleTeacher, Approved: true})
	p, store := newProvider(t, res, auth.Options{Settle: time.Second})

	token, expires, err := p.SignIn(context.Background(), 1, auth.Meta{UserAgent: "test"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored session, got %d", store.Len())
	}
	if !expires.After(time.Now()) {
		t.Error("expiry should be in the future")
	}

	src, err := p.Lookup(context.Background(), token)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	snap := gate.Take(src)
	if snap.Loading || snap.Profile == nil || snap.Profile.Role != gate.RoleTeacher {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestProvider_LoadingUntilResolved(t *testing.T) {
	res := &blockingResolver{release: make(chan struct{}), profile: gate.Profile{UserID: 2, Role: gate.RoleStudent}}
	p, _ := newProvider(t, res, auth.Options{})

	token, _, err := p.SignIn(context.Background(), 2, auth.Meta{})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	src, err := p.Lookup(context.Background(), token)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !src.Loading() {
		t.Fatal("expected loading before resolution")
	}

	var mu sync.Mutex
	notified := 0
	cancel := src.Subscribe(func() {
		mu.Lock()
		notified++
		mu.Unlock()
	})
	defer cancel()

	close(res.release)
	waitFor(t, func() bool { return !src.Loading() })

	prof, ok := src.Profile()
	if !ok || prof.Role != gate.RoleStudent {
		t.Fatalf("Profile = %+v, %v", prof, ok)
	}
	mu.Lock()
	defer mu.Unlock()
	if notified == 0 {
		t.Error("subscriber was not notified")
	}
}

func TestProvider_ResolutionFailureSettlesWithoutProfile(t *testing.T) {
	failing := gate.ResolverFunc[uint](func(context.Context, uint) (gate.Profile, error) {
		return gate.Profile{}, errors.New("db down")
	})
	p, _ := newProvider(t, failing, auth.Options{Settle: time.Second})

	token, _, _ := p.SignIn(context.Background(), 3, auth.Meta{})
	src, err := p.Lookup(context.Background(), token)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	waitFor(t, func() bool { return !src.Loading() })
	if _, ok := src.Profile(); ok {
		t.Error("expected no profile after failure")
	}
	if _, ok := src.Session(); !ok {
		t.Error("session should survive a failed resolution")
	}
}

// flakyResolver fails until healthy is set.
type flakyResolver struct {
	mu      sync.Mutex
	healthy bool
	calls   int
	profile gate.Profile
}

func (f *flakyResolver) Resolve(context.Context, uint) (gate.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !f.healthy {
		return gate.Profile{}, errors.New("connection reset")
	}
	return f.profile, nil
}

func (f *flakyResolver) heal() {
	f.mu.Lock()
	f.healthy = true
	f.mu.Unlock()
}

func (f *flakyResolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestProvider_RetriesFailedResolution(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}
	res := &flakyResolver{profile: gate.Profile{UserID: 9, Role: gate.RoleStudent, Approved: true}}
	p, _ := newProvider(t, res, auth.Options{Settle: time.Second, RetryBackoff: time.Minute, Now: clock})
	access := gate.Access{Roles: []gate.Role{gate.RoleStudent}, RequireApproval: true}

	token, _, _ := p.SignIn(context.Background(), 9, auth.Meta{})
	src, err := p.Lookup(context.Background(), token)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	waitFor(t, func() bool { return !src.Loading() })
	if d := access.Evaluate(gate.Take(src), "/student/dashboard"); d.Kind != gate.KindLoading || d.Reason != gate.ReasonProfileMissing {
		t.Fatalf("after failure: decision %+v", d)
	}

	res.heal()
	// Inside the backoff the failed state stands.
	if _, err := p.Lookup(context.Background(), token); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := res.Calls(); got != 1 {
		t.Fatalf("resolver called %d times inside backoff, want 1", got)
	}

	advance(2 * time.Minute)
	src, err = p.Lookup(context.Background(), token)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	waitFor(t, func() bool { return !src.Loading() })
	if d := access.Evaluate(gate.Take(src), "/student/dashboard"); d.Kind != gate.KindRender {
		t.Fatalf("after recovery: decision %+v", d)
	}

	// A settled profile is not resolved again by Lookup.
	advance(2 * time.Minute)
	_, _ = p.Lookup(context.Background(), token)
	if got := res.Calls(); got != 2 {
		t.Errorf("resolver called %d times, want 2", got)
	}
}

func TestProvider_SignOutUserRevokesSources(t *testing.T) {
	res := gate.NewStaticResolver[uint]()
	res.Set(11, gate.Profile{UserID: 11, Role: gate.RoleTeacher, Approved: true})
	p, store := newProvider(t, res, auth.Options{Settle: time.Second})

	first, _, _ := p.SignIn(context.Background(), 11, auth.Meta{UserAgent: "laptop"})
	second, _, _ := p.SignIn(context.Background(), 11, auth.Meta{UserAgent: "phone"})
	src, err := p.Lookup(context.Background(), first)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	notified := make(chan struct{}, 1)
	cancel := src.Subscribe(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	defer cancel()

	if err := p.SignOutUser(context.Background(), 11); err != nil {
		t.Fatalf("SignOutUser: %v", err)
	}
	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("subscriber was not notified")
	}
	if _, ok := src.Session(); ok {
		t.Error("handed-out source still reports a session")
	}
	if snap := gate.Take(src); snap.Session != nil {
		t.Errorf("snapshot still carries a session: %+v", snap)
	}
	for _, token := range []string{first, second} {
		if _, err := p.Lookup(context.Background(), token); !errors.Is(err, auth.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	}
	if store.Len() != 0 {
		t.Errorf("%d sessions left", store.Len())
	}
}

func TestProvider_RefreshPicksUpApproval(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(4, gate.Profile{UserID: 4, Role: gate.RoleParent})
	cached := gate.NewCachedResolver[uint](inner, time.Hour)
	p, _ := newProvider(t, cached, auth.Options{Settle: time.Second})

	token, _, _ := p.SignIn(context.Background(), 4, auth.Meta{})
	src, _ := p.Lookup(context.Background(), token)
	waitFor(t, func() bool { return !src.Loading() })

	inner.Set(4, gate.Profile{UserID: 4, Role: gate.RoleParent, Approved: true})
	p.Refresh(4)
	waitFor(t, func() bool {
		prof, ok := src.Profile()
		return ok && prof.Approved && !src.Loading()
	})
}

func TestProvider_SignOut(t *testing.T) {
	res := gate.NewStaticResolver[uint]()
	p, _ := newProvider(t, res, auth.Options{})

	token, _, _ := p.SignIn(context.Background(), 5, auth.Meta{})
	if err := p.SignOut(context.Background(), token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := p.Lookup(context.Background(), token); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestProvider_ExpiredSessionsAreSwept(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	p, store := newProvider(t, gate.NewStaticResolver[uint](), auth.Options{TTL: time.Minute, Now: clock})

	token, _, _ := p.SignIn(context.Background(), 6, auth.Meta{})
	now = now.Add(2 * time.Minute)

	if _, err := p.Lookup(context.Background(), token); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("expected expired session to be rejected, got %v", err)
	}

	_, _, _ = p.SignIn(context.Background(), 7, auth.Meta{})
	now = now.Add(2 * time.Minute)
	n, err := p.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 || store.Len() != 0 {
		t.Errorf("swept %d, %d left", n, store.Len())
	}
}

func TestMiddleware(t *testing.T) {
	res := gate.NewStaticResolver[uint]()
	res.Set(8, gate.Profile{UserID: 8, Role: gate.RoleAdmin, Approved: true})
	p, _ := newProvider(t, res, auth.Options{Settle: time.Second})
	cookies := auth.NewCookies("secret", false)

	var gotID uint
	var gotOK bool
	h := auth.Middleware(p, cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = auth.UserIDFromContext(r.Context())
	}))

	token, expires, _ := p.SignIn(context.Background(), 8, auth.Meta{})
	rec := httptest.NewRecorder()
	cookies.Set(rec, token, expires)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !gotOK || gotID != 8 {
		t.Fatalf("UserIDFromContext = %d, %v", gotID, gotOK)
	}

	// A cookie for a destroyed session is cleared.
	_ = p.SignOut(context.Background(), token)
	out := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	h.ServeHTTP(out, req)
	if gotOK {
		t.Error("expected anonymous request after sign out")
	}
	if cks := out.Result().Cookies(); len(cks) != 1 || cks[0].Value != "" {
		t.Errorf("expected clearing cookie, got %+v", cks)
	}
}
