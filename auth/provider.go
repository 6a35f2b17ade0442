package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/diewo77/go-school/gate"
)

// ErrNoSession is returned by Lookup when the token is unknown or expired.
var ErrNoSession = errors.New("no session")

// Options tunes a Provider. Zero values pick the defaults.
type Options struct {
	// TTL is the session lifetime.
	TTL time.Duration
	// Settle is how long Lookup waits for a pending profile before handing
	// out a loading source. Zero never waits.
	Settle time.Duration
	// ResolveTimeout bounds a single profile resolution.
	ResolveTimeout time.Duration
	// RetryBackoff is how long a failed resolution stands before the next
	// Lookup starts another one.
	RetryBackoff time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

const (
	defaultTTL            = 14 * 24 * time.Hour
	defaultResolveTimeout = 5 * time.Second
	defaultRetryBackoff   = 2 * time.Second
)

// Meta describes the client a session is created for.
type Meta struct {
	UserAgent string
	IP        string
}

// Provider owns sessions and the profile attached to each signed-in user.
// Profiles resolve on their own goroutine; every change is published to the
// subscribers of that user's sources.
type Provider struct {
	store       SessionStore
	resolver    gate.ProfileResolver[uint]
	invalidator interface{ Invalidate(uint) }
	opts        Options
	log         *slog.Logger

	mu    sync.Mutex
	users map[uint]*userState
}

type userState struct {
	mu      sync.RWMutex
	profile *gate.Profile
	loading bool
	// failedAt is set when the last resolution failed for a reason other
	// than a missing profile.
	failedAt time.Time
	revoked  bool
	settled  chan struct{}
	gen      uint64
	subs     map[uint64]func()
	nextSub  uint64
	lastUsed time.Time
}

// NewProvider creates a provider. When resolver also has an Invalidate(uint)
// method (gate.CachedResolver does), Refresh calls it before re-resolving.
func NewProvider(store SessionStore, resolver gate.ProfileResolver[uint], opts Options) *Provider {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = defaultResolveTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	p := &Provider{
		store:    store,
		resolver: resolver,
		opts:     opts,
		log:      opts.Logger,
		users:    make(map[uint]*userState),
	}
	if inv, ok := resolver.(interface{ Invalidate(uint) }); ok {
		p.invalidator = inv
	}
	return p
}

// TTL returns the session lifetime.
func (p *Provider) TTL() time.Duration { return p.opts.TTL }

// SignIn creates a session for userID and starts resolving its profile.
func (p *Provider) SignIn(ctx context.Context, userID uint, meta Meta) (string, time.Time, error) {
	token, err := NewToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expires := p.opts.Now().Add(p.opts.TTL)
	err = p.store.Create(ctx, StoredSession{
		TokenHash: HashToken(token),
		UserID:    userID,
		ExpiresAt: expires,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	p.Refresh(userID)
	p.state(userID)
	p.log.Info("session created", "user_id", userID)
	return token, expires, nil
}

// SignOut destroys the session behind token. Unknown tokens are ignored.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if err := p.store.Delete(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SignOutUser destroys every session of userID. Sources already handed out
// stop reporting a session and their subscribers are told.
func (p *Provider) SignOutUser(ctx context.Context, userID uint) error {
	if err := p.store.DeleteForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions for user %d: %w", userID, err)
	}
	p.mu.Lock()
	st, ok := p.users[userID]
	delete(p.users, userID)
	p.mu.Unlock()
	if ok {
		st.mu.Lock()
		st.revoked = true
		st.gen++
		st.loading = false
		st.mu.Unlock()
		st.notify()
	}
	p.log.Info("sessions revoked", "user_id", userID)
	return nil
}

// Lookup returns the source for token. It waits up to Options.Settle for a
// pending profile, then returns whatever state the provider holds.
func (p *Provider) Lookup(ctx context.Context, token string) (gate.Source, error) {
	hash := HashToken(token)
	s, err := p.store.Find(ctx, hash)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !s.ExpiresAt.After(p.opts.Now()) {
		if err := p.store.Delete(ctx, hash); err != nil {
			p.log.Warn("delete expired session", "user_id", s.UserID, "err", err)
		}
		return nil, ErrNoSession
	}
	st := p.state(s.UserID)
	p.wait(ctx, st)
	return &source{
		p:    p,
		sess: gate.Session{UserID: s.UserID, ExpiresAt: s.ExpiresAt},
		st:   st,
	}, nil
}

// Refresh drops any cached profile of userID and resolves it again. Sources
// already handed out observe the change through their subscribers.
func (p *Provider) Refresh(userID uint) {
	if p.invalidator != nil {
		p.invalidator.Invalidate(userID)
	}
	p.mu.Lock()
	st, ok := p.users[userID]
	p.mu.Unlock()
	if ok {
		p.startResolve(userID, st)
	}
}

// Sweep deletes expired sessions and forgets idle users nobody listens to.
func (p *Provider) Sweep(ctx context.Context) (int64, error) {
	now := p.opts.Now()
	n, err := p.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	p.mu.Lock()
	for id, st := range p.users {
		st.mu.RLock()
		idle := !st.loading && len(st.subs) == 0 && now.Sub(st.lastUsed) > p.opts.TTL
		st.mu.RUnlock()
		if idle {
			delete(p.users, id)
		}
	}
	p.mu.Unlock()
	if n > 0 {
		p.log.Info("expired sessions swept", "count", n)
	}
	return n, nil
}

// state returns the state of userID, creating it and starting the first
// resolution when missing. A failed resolution older than RetryBackoff is
// started again.
func (p *Provider) state(userID uint) *userState {
	now := p.opts.Now()
	p.mu.Lock()
	st, ok := p.users[userID]
	if !ok {
		st = &userState{subs: make(map[uint64]func())}
		p.users[userID] = st
	}
	p.mu.Unlock()

	st.mu.Lock()
	st.lastUsed = now
	retry := ok && !st.loading && !st.failedAt.IsZero() && now.Sub(st.failedAt) >= p.opts.RetryBackoff
	st.mu.Unlock()
	if !ok || retry {
		if retry {
			p.log.Info("retrying profile resolution", "user_id", userID)
		}
		p.startResolve(userID, st)
	}
	return st
}

func (p *Provider) startResolve(userID uint, st *userState) {
	st.mu.Lock()
	st.gen++
	gen := st.gen
	st.loading = true
	done := make(chan struct{})
	st.settled = done
	st.mu.Unlock()
	st.notify()
	go p.resolve(userID, st, gen, done)
}

func (p *Provider) resolve(userID uint, st *userState, gen uint64, done chan struct{}) {
	defer close(done)
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.ResolveTimeout)
	defer cancel()

	var next *gate.Profile
	var failedAt time.Time
	prof, err := p.resolver.Resolve(ctx, userID)
	switch {
	case err == nil:
		next = &prof
	case errors.Is(err, gate.ErrNoProfile):
		p.log.Info("user has no profile", "user_id", userID)
	default:
		// Settle as "no profile": gates that check roles keep the user on the
		// loading page until a later Lookup retries.
		p.log.Warn("profile resolution failed", "user_id", userID, "err", err)
		failedAt = p.opts.Now()
	}

	st.mu.Lock()
	if st.gen != gen {
		st.mu.Unlock()
		return
	}
	st.profile = next
	st.failedAt = failedAt
	st.loading = false
	st.mu.Unlock()
	st.notify()
}

func (p *Provider) wait(ctx context.Context, st *userState) {
	if p.opts.Settle <= 0 {
		return
	}
	st.mu.RLock()
	loading, ch := st.loading, st.settled
	st.mu.RUnlock()
	if !loading {
		return
	}
	t := time.NewTimer(p.opts.Settle)
	defer t.Stop()
	select {
	case <-ch:
	case <-t.C:
	case <-ctx.Done():
	}
}

func (st *userState) notify() {
	st.mu.RLock()
	fns := make([]func(), 0, len(st.subs))
	for _, fn := range st.subs {
		fns = append(fns, fn)
	}
	st.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

func (st *userState) subscribe(fn func()) func() {
	st.mu.Lock()
	id := st.nextSub
	st.nextSub++
	st.subs[id] = fn
	st.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			st.mu.Lock()
			delete(st.subs, id)
			st.mu.Unlock()
		})
	}
}

// source is the gate.Source handed to one request.
type source struct {
	p    *Provider
	sess gate.Session
	st   *userState
}

func (s *source) Session() (gate.Session, bool) {
	s.st.mu.RLock()
	revoked := s.st.revoked
	s.st.mu.RUnlock()
	if revoked || !s.sess.ExpiresAt.After(s.p.opts.Now()) {
		return gate.Session{}, false
	}
	return s.sess, true
}

func (s *source) Profile() (gate.Profile, bool) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	if s.st.profile == nil {
		return gate.Profile{}, false
	}
	return *s.st.profile, true
}

func (s *source) Loading() bool {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	return s.st.loading
}

func (s *source) Subscribe(fn func()) func() { return s.st.subscribe(fn) }

// Snapshot copies the session and the profile state under one lock.
func (s *source) Snapshot() gate.Snapshot {
	var snap gate.Snapshot
	if sess, ok := s.Session(); ok {
		snap.Session = &sess
	}
	s.st.mu.RLock()
	snap.Loading = s.st.loading
	if s.st.profile != nil {
		prof := *s.st.profile
		snap.Profile = &prof
	}
	s.st.mu.RUnlock()
	return snap
}
