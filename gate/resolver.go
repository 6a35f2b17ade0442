package gate

import (
	"context"
	"sync"
)

// ProfileResolver resolves a user to their profile.
// U is the user key type (e.g., uint for userID).
// A user without a profile yields ErrNoProfile.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// StaticResolver is a simple in-memory resolver for testing.
type StaticResolver[U comparable] struct {
	mu       sync.RWMutex
	profiles map[U]Profile
}

// NewStaticResolver creates an empty resolver.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

// Set assigns a profile to a user.
func (r *StaticResolver[U]) Set(user U, profile Profile) {
	r.mu.Lock()
	r.profiles[user] = profile
	r.mu.Unlock()
}

// Delete removes the profile of a user.
func (r *StaticResolver[U]) Delete(user U) {
	r.mu.Lock()
	delete(r.profiles, user)
	r.mu.Unlock()
}

// Resolve returns the profile for the given user.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if profile, ok := r.profiles[user]; ok {
		return profile, nil
	}
	return Profile{}, ErrNoProfile
}

// ResolverFunc adapts a function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, user U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	return f(ctx, user)
}
