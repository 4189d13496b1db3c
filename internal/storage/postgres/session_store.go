package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"event-radar/internal/domain"
	"event-radar/internal/storage"
)

// SessionArchiveStore implements storage.SessionArchiveStore using PostgreSQL.
type SessionArchiveStore struct {
	pool *Pool
}

// NewSessionArchiveStore creates a new SessionArchiveStore.
func NewSessionArchiveStore(pool *Pool) *SessionArchiveStore {
	return &SessionArchiveStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionArchiveStore = (*SessionArchiveStore)(nil)

// InsertSession archives a terminated session. Returns ErrDuplicateKey if
// the session_id exists.
func (s *SessionArchiveStore) InsertSession(ctx context.Context, rec *domain.SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sessions (
			session_id, query, status, started_at, ended_at,
			events_total, sources_total, sources_succeeded, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.SessionID,
		rec.Query,
		string(rec.Status),
		rec.StartedAt,
		rec.EndedAt,
		rec.EventsTotal,
		rec.SourcesTotal,
		rec.SourcesSucceeded,
		rec.Summary,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// InsertEvents archives the final accumulated set of a session. Events are
// keyed by (session_id, position) so insertion order survives the round trip.
func (s *SessionArchiveStore) InsertEvents(ctx context.Context, sessionID string, events []*domain.EventCandidate) error {
	if sessionID == "" {
		return storage.ErrInvalidInput
	}
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO session_events (
			session_id, position, event_id, title, description, start_datetime,
			venue_name, venue_address, city, province, country, category,
			price, is_free, image_url, source_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	batch := &pgx.Batch{}
	for i, e := range events {
		batch.Queue(query,
			sessionID,
			i,
			e.EventID,
			e.Title,
			e.Description,
			e.StartDateTime,
			e.VenueName,
			e.VenueAddress,
			e.City,
			e.Province,
			e.Country,
			e.Category,
			e.Price,
			e.IsFree,
			e.ImageURL,
			e.SourceID,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert session event: %w", err)
		}
	}
	return nil
}

// GetSession retrieves an archived session. Returns ErrNotFound if not exists.
func (s *SessionArchiveStore) GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	query := `
		SELECT session_id, query, status, started_at, ended_at,
		       events_total, sources_total, sources_succeeded, summary
		FROM sessions
		WHERE session_id = $1
	`

	row := s.pool.QueryRow(ctx, query, sessionID)

	var rec domain.SessionRecord
	var statusStr string
	err := row.Scan(
		&rec.SessionID,
		&rec.Query,
		&statusStr,
		&rec.StartedAt,
		&rec.EndedAt,
		&rec.EventsTotal,
		&rec.SourcesTotal,
		&rec.SourcesSucceeded,
		&rec.Summary,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	rec.Status = domain.SessionStatus(statusStr)
	return &rec, nil
}

// GetEvents retrieves a session's archived events in insertion order.
func (s *SessionArchiveStore) GetEvents(ctx context.Context, sessionID string) ([]*domain.EventCandidate, error) {
	query := `
		SELECT event_id, title, description, start_datetime,
		       venue_name, venue_address, city, province, country, category,
		       price, is_free, image_url, source_id
		FROM session_events
		WHERE session_id = $1
		ORDER BY position ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session events: %w", err)
	}
	defer rows.Close()

	var events []*domain.EventCandidate
	for rows.Next() {
		var e domain.EventCandidate
		err := rows.Scan(
			&e.EventID,
			&e.Title,
			&e.Description,
			&e.StartDateTime,
			&e.VenueName,
			&e.VenueAddress,
			&e.City,
			&e.Province,
			&e.Country,
			&e.Category,
			&e.Price,
			&e.IsFree,
			&e.ImageURL,
			&e.SourceID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session event row: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session event rows: %w", err)
	}

	return events, nil
}

// ListRecent retrieves up to limit archived sessions, most recent first.
func (s *SessionArchiveStore) ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error) {
	query := `
		SELECT session_id, query, status, started_at, ended_at,
		       events_total, sources_total, sources_succeeded, summary
		FROM sessions
		ORDER BY started_at DESC, session_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	defer rows.Close()

	var records []*domain.SessionRecord
	for rows.Next() {
		var rec domain.SessionRecord
		var statusStr string
		err := rows.Scan(
			&rec.SessionID,
			&rec.Query,
			&statusStr,
			&rec.StartedAt,
			&rec.EndedAt,
			&rec.EventsTotal,
			&rec.SourcesTotal,
			&rec.SourcesSucceeded,
			&rec.Summary,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		rec.Status = domain.SessionStatus(statusStr)
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return records, nil
}
