package api

import (
	"sync"

	"github.com/google/uuid"

	"github.com/secondbrainhq/secondbrain/internal/agent"
)

// Session pairs conversation memory with a lock. Memory requires a single
// logical writer, so handlers hold Mu across the read-ask-append cycle,
// serializing concurrent questions within one session.
type Session struct {
	Mu     sync.Mutex
	Memory *agent.Memory
}

// SessionManager holds per-session conversation memory in process. Memory
// is bounded per session and never persisted; deleting a session or
// restarting the server forgets the conversation.
type SessionManager struct {
	mu       sync.RWMutex
	maxTurns int
	sessions map[uuid.UUID]*Session
}

// NewSessionManager creates a session manager whose sessions each hold up
// to maxTurns conversation turns.
func NewSessionManager(maxTurns int) *SessionManager {
	return &SessionManager{
		maxTurns: maxTurns,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create allocates a new session and returns its ID.
func (m *SessionManager) Create() uuid.UUID {
	id := uuid.New()
	m.mu.Lock()
	m.sessions[id] = &Session{Memory: agent.NewMemory(m.maxTurns)}
	m.mu.Unlock()
	return id
}

// Get returns the session, or false if it does not exist.
func (m *SessionManager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Delete removes a session and its memory. Deleting an unknown session
// reports false.
func (m *SessionManager) Delete(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len reports the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
