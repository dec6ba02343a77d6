package session

import "sync"

// Locks serializes overlapping turns for the same session key.
//
// Without it, two concurrent turns for one user interleave their load/save
// cycles and the persisted context becomes last-writer-wins.  Holding the
// session's lock from context load until the post-reply save closes that
// window; turns for different sessions still run fully in parallel.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks returns an empty lock registry.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sessionLock)}
}

// Acquire blocks until the lock for key is held and returns the release
// function.  Entries are reference-counted and removed once the last holder
// releases, so the registry does not grow with the number of sessions seen.
func (l *Locks) Acquire(key string) (release func()) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &sessionLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
