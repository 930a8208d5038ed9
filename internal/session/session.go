// Package session holds the derived key of a logged-in identity in memory.
//
// A Session is an explicit handle: services take it as an argument for every
// document operation. Manager is the single-slot holder used by the
// interactive CLI, where at most one identity is logged in at a time.
package session

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/encodex/internal/common"
)

// Session binds an identity to the key derived from its password.
// It is never persisted.
type Session struct {
	Identity string
	OpenedAt time.Time
	key      []byte
}

// New copies key into a fresh session for identity.
func New(identity string, key []byte) *Session {
	return &Session{
		Identity: identity,
		OpenedAt: time.Now().UTC(),
		key:      append([]byte(nil), key...),
	}
}

// Key returns the session key. Callers must not modify it.
func (s *Session) Key() []byte {
	return s.key
}

// Manager keeps at most one active session.
type Manager struct {
	mu      sync.RWMutex
	current *Session
}

func NewManager() *Manager {
	return &Manager{}
}

// Open replaces any active session with a new one for identity.
func (m *Manager) Open(identity string, key []byte) *Session {
	s := New(identity, key)
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s
}

// Close forgets the active session. Closing with no session is a no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

// Current returns the active session or common.ErrNoActiveSession.
func (m *Manager) Current() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, common.ErrNoActiveSession
	}
	return m.current, nil
}
