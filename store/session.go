package store

import (
	"context"
	"errors"
	"sync"
)

// SessionStore keys conversation histories by runtime session id. Histories
// are cached in memory and written through to the adapter, so a store backed
// by a durable adapter picks sessions back up after a restart.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*MessageStore
	adapter  Adapter
}

// NewSessionStore creates a session store backed by the given adapter.
// A nil adapter keeps sessions in memory for the life of the process.
func NewSessionStore(adapter Adapter) *SessionStore {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &SessionStore{
		sessions: make(map[string]*MessageStore),
		adapter:  adapter,
	}
}

// Get returns the MessageStore for the session. A session this process has
// not seen is reloaded from the adapter; an unknown id starts empty.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*MessageStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ms, ok := s.sessions[sessionID]; ok {
		return ms, nil
	}

	ms := NewMessageStore(s.adapter)
	if err := ms.Reload(ctx, sessionID); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	s.sessions[sessionID] = ms
	return ms, nil
}

// Sync persists the session's history through the adapter.
func (s *SessionStore) Sync(ctx context.Context, sessionID string) error {
	ms, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return ms.Sync(ctx, sessionID)
}

// Delete removes a session from the cache and the adapter.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return s.adapter.Delete(ctx, sessionID)
}

// Len returns the number of cached sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
