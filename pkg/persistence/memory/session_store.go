// Package memory provides an in-process session store for tests and local
// development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/botfluent/botfluent/pkg/persistence"
)

// SessionStore implements persistence.SessionStore in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*persistence.SessionRecord
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*persistence.SessionRecord)}
}

func (s *SessionStore) SaveSession(_ context.Context, record *persistence.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.UpdatedAt = time.Now().UTC()
	stored := *record
	s.sessions[record.ID] = &stored

	return nil
}

func (s *SessionStore) SessionByID(_ context.Context, id string) (*persistence.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.sessions[id]
	if !ok {
		return nil, persistence.ErrSessionNotFound
	}

	copied := *record

	return &copied, nil
}

func (s *SessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)

	return nil
}

// ExpireIdle drops sessions untouched for longer than idleFor.
func (s *SessionStore) ExpireIdle(_ context.Context, idleFor time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-idleFor)
	expired := 0

	for id, record := range s.sessions {
		if record.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)

			expired++
		}
	}

	return expired, nil
}

func (s *SessionStore) Close(_ context.Context) error {
	return nil
}
