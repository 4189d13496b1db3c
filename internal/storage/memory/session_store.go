package memory

import (
	"context"
	"sort"
	"sync"

	"event-radar/internal/domain"
	"event-radar/internal/storage"
)

// SessionArchiveStore is an in-memory implementation of
// storage.SessionArchiveStore.
type SessionArchiveStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.SessionRecord
	events   map[string][]*domain.EventCandidate
}

// NewSessionArchiveStore creates a new in-memory session archive.
func NewSessionArchiveStore() *SessionArchiveStore {
	return &SessionArchiveStore{
		sessions: make(map[string]*domain.SessionRecord),
		events:   make(map[string][]*domain.EventCandidate),
	}
}

// InsertSession archives a terminated session. Returns ErrDuplicateKey if
// the session_id exists.
func (s *SessionArchiveStore) InsertSession(_ context.Context, rec *domain.SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[rec.SessionID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recCopy := *rec
	s.sessions[rec.SessionID] = &recCopy
	return nil
}

// InsertEvents archives the final accumulated set of a session.
func (s *SessionArchiveStore) InsertEvents(_ context.Context, sessionID string, events []*domain.EventCandidate) error {
	if sessionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]*domain.EventCandidate, 0, len(events))
	for _, e := range events {
		stored = append(stored, e.Clone())
	}
	s.events[sessionID] = append(s.events[sessionID], stored...)
	return nil
}

// GetSession retrieves an archived session. Returns ErrNotFound if not exists.
func (s *SessionArchiveStore) GetSession(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.sessions[sessionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// GetEvents retrieves a session's archived events in insertion order.
func (s *SessionArchiveStore) GetEvents(_ context.Context, sessionID string) ([]*domain.EventCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[sessionID]
	result := make([]*domain.EventCandidate, 0, len(events))
	for _, e := range events {
		result = append(result, e.Clone())
	}
	return result, nil
}

// ListRecent retrieves up to limit archived sessions, most recent first.
func (s *SessionArchiveStore) ListRecent(_ context.Context, limit int) ([]*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SessionRecord, 0, len(s.sessions))
	for _, rec := range s.sessions {
		recCopy := *rec
		result = append(result, &recCopy)
	}

	// Sort by started_at DESC, session_id for determinism
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt != result[j].StartedAt {
			return result[i].StartedAt > result[j].StartedAt
		}
		return result[i].SessionID < result[j].SessionID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.SessionArchiveStore = (*SessionArchiveStore)(nil)
