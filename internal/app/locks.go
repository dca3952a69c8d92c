package app

import "sync"

// sessionLocks hands out one mutex per session id. All mutations of a
// session's state (open-round pointer, timer, answer inserts) go through its
// lock, which is what upholds "at most one open round" and keeps broadcast
// emission ordered per session. Locks are never removed; ended sessions stop
// being locked and the per-session footprint is a single mutex.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{m: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) get(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.m[sessionID]; ok {
		return m
	}
	m := &sync.Mutex{}
	l.m[sessionID] = m
	return m
}
