package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds one conversation's history and metadata.
type Session struct {
	Key       string
	ID        string
	History   *History
	CreatedAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
	metadata  map[string]any

	// turn serialises agent turns on this session.
	turn sync.Mutex
}

// New creates an empty session for key.
func New(key, systemPrompt string, maxHistory int) *Session {
	now := time.Now()
	return &Session{
		Key:       key,
		ID:        uuid.Must(uuid.NewV7()).String(),
		History:   NewHistory(systemPrompt, maxHistory),
		CreatedAt: now,
		updatedAt: now,
		metadata:  map[string]any{},
	}
}

// LockTurn blocks until no other turn runs on the session and returns the
// matching unlock function.
func (s *Session) LockTurn() func() {
	s.turn.Lock()
	return s.turn.Unlock
}

// TryLockTurn acquires the turn lock only if it is free.
func (s *Session) TryLockTurn() (func(), bool) {
	if !s.turn.TryLock() {
		return nil, false
	}
	return s.turn.Unlock, true
}

// Touch records that the session changed.
func (s *Session) Touch() {
	s.mu.Lock()
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// UpdatedAt returns the last modification time.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// SetMeta stores a metadata value persisted with the session.
func (s *Session) SetMeta(key string, value any) {
	s.mu.Lock()
	s.metadata[key] = value
	s.mu.Unlock()
}

// Meta returns a copy of the metadata map.
func (s *Session) Meta() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}
	return out
}

// Clear resets the conversation, keeping the system prompt.
func (s *Session) Clear() {
	s.History.Reset(true)
	s.Touch()
}
