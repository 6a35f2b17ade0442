package gate

import "time"

// Session is an authenticated identity. It is opaque to the gates: only its
// presence matters when deciding access.
type Session struct {
	UserID    uint
	ExpiresAt time.Time
}

// Profile carries the role and approval metadata attached to a session.
type Profile struct {
	UserID   uint
	FullName string
	Role     Role
	Approved bool
}

// Source is the read-only view of session state the gates consult. All
// accessors are synchronous; Subscribe registers fn to be called after every
// change and returns a function that cancels the registration.
type Source interface {
	Session() (Session, bool)
	Profile() (Profile, bool)
	Loading() bool
	Subscribe(fn func()) (cancel func())
}

// Snapshot is a consistent copy of a Source taken once per evaluation.
type Snapshot struct {
	Session *Session
	Profile *Profile
	Loading bool
}

// Authenticated reports whether the snapshot holds a live session.
func (s Snapshot) Authenticated() bool { return s.Session != nil }

// Snapshotter is implemented by sources that can copy their whole state under
// a single lock.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Take reads src once. A nil src is an unauthenticated, settled state.
func Take(src Source) Snapshot {
	var snap Snapshot
	if src == nil {
		return snap
	}
	if s, ok := src.(Snapshotter); ok {
		return s.Snapshot()
	}
	snap.Loading = src.Loading()
	if sess, ok := src.Session(); ok {
		snap.Session = &sess
	}
	if prof, ok := src.Profile(); ok {
		snap.Profile = &prof
	}
	return snap
}

// StaticSource is a fixed Source. Its Subscribe never fires.
type StaticSource struct {
	Snap Snapshot
}

func (s StaticSource) Session() (Session, bool) {
	if s.Snap.Session == nil {
		return Session{}, false
	}
	return *s.Snap.Session, true
}

func (s StaticSource) Profile() (Profile, bool) {
	if s.Snap.Profile == nil {
		return Profile{}, false
	}
	return *s.Snap.Profile, true
}

func (s StaticSource) Loading() bool { return s.Snap.Loading }

func (s StaticSource) Subscribe(func()) func() { return func() {} }
