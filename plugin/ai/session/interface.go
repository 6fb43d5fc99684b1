// Package session keeps the per-caller conversation history that gives the agent
// short-term memory across turns.
package session

import (
	"sync"
	"time"
)

// Store is the session registry. Implementations must let different keys
// proceed in parallel; mutations of one session lock only that session.
type Store interface {
	// GetOrCreate returns the session for key, creating an empty one on first access.
	GetOrCreate(key string) *Session
	// Get returns the session for key without creating it.
	Get(key string) (*Session, bool)
	// Evict drops the session for key. Evicting an unknown key is a no-op.
	Evict(key string)
	// EvictIdle drops sessions not touched for longer than idle and returns how many.
	EvictIdle(idle time.Duration) int
	// Len returns the number of live sessions.
	Len() int
}

// Message is one conversation turn.
type Message struct {
	Role      string    `json:"role"` // "user" | "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Key returns the session key of a caller.
func Key(owner string) string {
	return "user_" + owner
}

// Session is an ordered, append-only turn history.
type Session struct {
	key   string
	clock func() time.Time

	mu         sync.Mutex
	messages   []Message
	lastAccess time.Time
}

func newSession(key string, clock func() time.Time) *Session {
	return &Session{key: key, clock: clock, lastAccess: clock()}
}

// Key returns the session key.
func (s *Session) Key() string {
	return s.key
}

// Append adds messages in order. Messages without a timestamp get the current time.
func (s *Session) Append(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for _, msg := range msgs {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = now
		}
		s.messages = append(s.messages, msg)
	}
	s.lastAccess = now
}

// Messages returns a copy of the whole history.
func (s *Session) Messages() []Message {
	return s.Recent(0)
}

// Recent returns a copy of the last n messages, or all of them when n <= 0.
func (s *Session) Recent(n int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.clock()

	messages := s.messages
	if n > 0 && n < len(messages) {
		messages = messages[len(messages)-n:]
	}
	result := make([]Message, len(messages))
	copy(result, messages)
	return result
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// LastAccess returns when the session was last read or written.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}
