package session

import (
	"sync"
	"time"

	"github.com/tavisham/lobbygate/internal/dependencies/clock"
)

// Registry is the process-wide map from account username to session.
// Its mutex guards only membership; it is never held across a command.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	clock    clock.Clock
}

// NewRegistry creates an empty session registry.
func NewRegistry(clk clock.Clock) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		clock:    clk,
	}
}

// GetOrCreate returns the session for a username, creating it on first
// contact. Only one session instance ever exists per username.
func (r *Registry) GetOrCreate(username, origin string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[username]
	if !ok {
		sess = &Session{Username: username, Origin: origin}
		r.sessions[username] = sess
	}
	sess.LastSeen = r.clock.Now()
	return sess
}

// Get returns the session for a username if one exists.
func (r *Registry) Get(username string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[username]
	return sess, ok
}

// Invalidate clears the outstanding challenge and detaches the loaded
// account, forcing the next command to re-authenticate. The caller is
// expected to hold the session's execution lock (it is the in-flight
// command doing the invalidating).
func (r *Registry) Invalidate(sess *Session) {
	sess.Invalidate()
}

// Drop removes the session registered for a username, if any. Used
// when an account is deleted or disabled. If a command is in flight on
// that session (including the dropping command itself, when an admin
// targets their own account), the state is left to die with the
// unlinked session rather than deadlocking on its execution lock.
func (r *Registry) Drop(username string) {
	r.mu.Lock()
	sess, ok := r.sessions[username]
	if ok {
		delete(r.sessions, username)
	}
	r.mu.Unlock()

	if ok && sess.TryLock() {
		sess.Reset()
		sess.Unlock()
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than maxIdle and returns how
// many were removed. A session with a command in flight is skipped.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for username, sess := range r.sessions {
		if now.Sub(sess.LastSeen) <= maxIdle {
			continue
		}
		if !sess.TryLock() {
			continue
		}
		sess.Reset()
		sess.Unlock()
		delete(r.sessions, username)
		evicted++
	}
	return evicted
}
