package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned by SessionStore.Find for unknown tokens.
var ErrSessionNotFound = errors.New("session not found")

// StoredSession is the persisted form of a session.
type StoredSession struct {
	TokenHash string
	UserID    uint
	ExpiresAt time.Time
	UserAgent string
	IP        string
}

// SessionStore persists sessions keyed by token hash.
type SessionStore interface {
	Create(ctx context.Context, s StoredSession) error
	Find(ctx context.Context, tokenHash string) (StoredSession, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteForUser(ctx context.Context, userID uint) error
	// DeleteExpired removes sessions that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MemoryStore is an in-process SessionStore, used by tests and single-node dev setups.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]StoredSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]StoredSession)}
}

func (m *MemoryStore) Create(_ context.Context, s StoredSession) error {
	m.mu.Lock()
	m.sessions[s.TokenHash] = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Find(_ context.Context, tokenHash string) (StoredSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tokenHash]
	if !ok {
		return StoredSession{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	delete(m.sessions, tokenHash)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeleteForUser(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, k)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

// Len reports how many sessions are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
