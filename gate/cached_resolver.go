package gate

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CachedResolver keeps resolved profiles for a TTL. When the inner resolver
// fails, a profile fetched within the stale window is served instead, so a
// short database outage does not send signed-in users to the loading page.
// A user whose profile disappeared (ErrNoProfile) is dropped at once.
type CachedResolver[U comparable] struct {
	inner ProfileResolver[U]
	ttl   time.Duration
	stale time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[U]cachedProfile
}

type cachedProfile struct {
	profile   Profile
	fetchedAt time.Time
}

// CacheOption tunes a CachedResolver.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	stale time.Duration
	now   func() time.Time
}

// WithStaleIfError serves a cached profile up to d past its TTL when the
// inner resolver returns an error other than ErrNoProfile.
func WithStaleIfError(d time.Duration) CacheOption {
	return func(o *cacheOptions) { o.stale = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(o *cacheOptions) { o.now = now }
}

func NewCachedResolver[U comparable](inner ProfileResolver[U], ttl time.Duration, opts ...CacheOption) *CachedResolver[U] {
	o := cacheOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &CachedResolver[U]{
		inner:   inner,
		ttl:     ttl,
		stale:   o.stale,
		now:     o.now,
		entries: make(map[U]cachedProfile),
	}
}

func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	now := r.now()
	r.mu.Lock()
	entry, ok := r.entries[user]
	r.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < r.ttl {
		return entry.profile, nil
	}

	profile, err := r.inner.Resolve(ctx, user)
	switch {
	case err == nil:
		r.mu.Lock()
		r.entries[user] = cachedProfile{profile: profile, fetchedAt: now}
		r.mu.Unlock()
		return profile, nil
	case errors.Is(err, ErrNoProfile):
		r.Invalidate(user)
		return Profile{}, err
	case ok && now.Sub(entry.fetchedAt) < r.ttl+r.stale:
		return entry.profile, nil
	default:
		return Profile{}, err
	}
}

// Invalidate forgets user. Call it when a role or approval changes.
func (r *CachedResolver[U]) Invalidate(user U) {
	r.mu.Lock()
	delete(r.entries, user)
	r.mu.Unlock()
}
