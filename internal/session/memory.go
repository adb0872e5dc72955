package session

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// MemoryStore keeps sessions in process memory.
// Expired sessions are invisible to Get and removed by SweepExpired.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.Session // ID -> Session
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Save stores a copy of s, replacing any session with the same ID.
func (m *MemoryStore) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s.Clone()
	return nil
}

// Get returns a copy of the session.
func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || s.Expired(m.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Delete removes a session. Deleting an unknown ID is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	n := 0
	for _, s := range m.sessions {
		if !s.Expired(now) {
			n++
		}
	}
	return n, nil
}

// SweepExpired deletes sessions expired at now and returns how many.
func (m *MemoryStore) SweepExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	m.lastSweep = now
	return removed
}

// GetLastSweep returns the time of the last sweep.
func (m *MemoryStore) GetLastSweep() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastSweep
}
