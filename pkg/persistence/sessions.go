package persistence

import (
	"errors"
	"sync"
	"time"

	"github.com/owl-protocol/owl-go/pkg/owl"
)

// Session store errors.
var (
	ErrSessionNotFound = errors.New("persistence: unknown or already consumed session")
	ErrSessionExists   = errors.New("persistence: session id already in use")
)

// SessionStore holds the server's per-session AuthInitialValues
// between flow 2 and flow 3. Take removes the entry, enforcing the
// read-at-most-once contract: a session's initial values never survive
// their AuthFinish, successful or not.
type SessionStore interface {
	// Put stores initial values under a fresh session id.
	Put(sessionID string, initial *owl.AuthInitialValues) error

	// Take returns and removes the initial values for a session, or
	// ErrSessionNotFound if absent or already consumed.
	Take(sessionID string) (*owl.AuthInitialValues, error)
}

type sessionEntry struct {
	initial   *owl.AuthInitialValues
	createdAt time.Time
}

// MemorySessionStore is an in-memory SessionStore with age-based
// expiry of abandoned sessions.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
}

// NewMemorySessionStore creates an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]sessionEntry)}
}

// Put stores initial values under a fresh session id.
func (s *MemorySessionStore) Put(sessionID string, initial *owl.AuthInitialValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		return ErrSessionExists
	}
	s.sessions[sessionID] = sessionEntry{initial: initial, createdAt: time.Now()}
	return nil
}

// Take returns and removes the initial values for a session.
func (s *MemorySessionStore) Take(sessionID string) (*owl.AuthInitialValues, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return entry.initial, nil
}

// Sweep removes and wipes sessions older than maxAge, returning how
// many were dropped. Callers run it periodically so abandoned flow-2
// state does not accumulate.
func (s *MemorySessionStore) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	dropped := 0
	for id, entry := range s.sessions {
		if entry.createdAt.Before(cutoff) {
			entry.initial.Wipe()
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of pending sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Compile-time interface satisfaction check.
var _ SessionStore = (*MemorySessionStore)(nil)
