package session

import (
	"sync"
	"time"
)

// MemoryStore is an in-process Store. The registry lock is held only for map
// lookups and inserts, never while a session is being read or written.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clock    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty registry.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty registry reading time from clock.
func NewMemoryStoreWithClock(clock func() time.Time) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		clock:    clock,
	}
}

func (m *MemoryStore) GetOrCreate(key string) *Session {
	if s, ok := m.Get(key); ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have created it between the locks.
	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := newSession(key, m.clock)
	m.sessions[key] = s
	return s
}

func (m *MemoryStore) Get(key string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	return s, ok
}

func (m *MemoryStore) Evict(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

func (m *MemoryStore) EvictIdle(idle time.Duration) int {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for key, s := range m.sessions {
		if now.Sub(s.LastAccess()) > idle {
			delete(m.sessions, key)
			evicted++
		}
	}
	return evicted
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
