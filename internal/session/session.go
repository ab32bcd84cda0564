// Package session holds the per-account command sessions and the
// process-wide registry that owns them.
package session

import (
	"sync"
	"time"

	"github.com/tavisham/lobbygate/internal/extension"
	"github.com/tavisham/lobbygate/internal/model"
)

// Session tracks one account's authentication state and serializes its
// command execution. A session is either plain (lobby commands) or
// game-linked once a web game has been started on it.
type Session struct {
	mu sync.Mutex

	// Username is the lowercased account name, empty until a
	// challenge has been issued.
	Username string

	// Challenge is the outstanding random challenge the next request
	// must answer. Rotated on every successful authentication.
	Challenge string

	// Account is loaded when the challenge is issued and detached
	// whenever the session is invalidated.
	Account *model.Account

	// Origin is the client's network address, for logging only.
	Origin string

	// LastSeen drives idle eviction. Guarded by the registry mutex.
	LastSeen time.Time

	// Game is set while a web game is running on this session.
	Game *GameLink
}

// GameLink binds a session to a running web game: the peer hosting the
// gameplay session, the character whose ledger the game mutates, and
// the long-lived extension host holding the game's script state.
type GameLink struct {
	PeerID      string
	CharacterID string
	ClientID    int32
	SessionID   string
	Host        *extension.Host
	Buffer      *extension.ResponseBuffer
}

// Lock acquires the session's execution lock. At most one command runs
// per session; the lock is held for the whole command, never while
// touching the registry map.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the execution lock.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// TryLock attempts the execution lock without blocking.
func (s *Session) TryLock() bool {
	return s.mu.TryLock()
}

// Reset clears all authentication state, forcing the caller back
// through the challenge handshake. Must be called with the execution
// lock held.
func (s *Session) Reset() {
	s.Username = ""
	s.Challenge = ""
	s.Account = nil
	s.Game = nil
}

// Invalidate detaches the account and challenge but keeps the username
// binding, so the registry entry survives for the next handshake.
func (s *Session) Invalidate() {
	s.Challenge = ""
	s.Account = nil
	s.Game = nil
}
