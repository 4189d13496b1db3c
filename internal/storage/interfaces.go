// Package storage defines the archive interfaces the engine writes to
// when a session terminates. The live search path never touches storage;
// archival is strictly a terminal-state concern.
package storage

import (
	"context"

	"event-radar/internal/domain"
)

// SessionArchiveStore persists terminated sessions and their final
// deduplicated event lists.
type SessionArchiveStore interface {
	// InsertSession archives a terminated session. Returns ErrDuplicateKey
	// if the session_id exists.
	InsertSession(ctx context.Context, rec *domain.SessionRecord) error

	// InsertEvents archives the final accumulated set of a session,
	// preserving insertion order.
	InsertEvents(ctx context.Context, sessionID string, events []*domain.EventCandidate) error

	// GetSession retrieves an archived session. Returns ErrNotFound if not exists.
	GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// GetEvents retrieves a session's archived events in insertion order.
	GetEvents(ctx context.Context, sessionID string) ([]*domain.EventCandidate, error)

	// ListRecent retrieves up to limit archived sessions, most recent first.
	ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error)
}

// SourceLatencyStore persists one latency sample per source per
// terminated session, for offline analysis of provider behavior.
type SourceLatencyStore interface {
	// InsertBulk adds samples for one session.
	InsertBulk(ctx context.Context, samples []*domain.SourceLatencySample) error

	// GetBySession retrieves samples for a session, ordered by source_id ASC.
	GetBySession(ctx context.Context, sessionID string) ([]*domain.SourceLatencySample, error)
}
