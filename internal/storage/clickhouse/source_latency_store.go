package clickhouse

import (
	"context"
	"fmt"
	"time"

	"event-radar/internal/domain"
	"event-radar/internal/storage"
)

// SourceLatencyStore implements storage.SourceLatencyStore using ClickHouse.
// Samples land in a MergeTree table sized for append-heavy analytical reads.
type SourceLatencyStore struct {
	conn *Conn
}

// NewSourceLatencyStore creates a new SourceLatencyStore.
func NewSourceLatencyStore(conn *Conn) *SourceLatencyStore {
	return &SourceLatencyStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SourceLatencyStore = (*SourceLatencyStore)(nil)

// InsertBulk adds latency samples for one session.
func (s *SourceLatencyStore) InsertBulk(ctx context.Context, samples []*domain.SourceLatencySample) error {
	if len(samples) == 0 {
		return nil
	}
	for _, sample := range samples {
		if sample == nil || sample.SessionID == "" || sample.SourceID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO source_latency (
			session_id, source_id, status, events_count,
			first_event_latency_ms, total_latency_ms, recorded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sample := range samples {
		err = batch.Append(
			sample.SessionID,
			sample.SourceID,
			string(sample.Status),
			uint32(sample.EventsCount),
			sample.FirstEventLatencyMs,
			sample.TotalLatencyMs,
			time.UnixMilli(sample.RecordedAt).UTC(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySession retrieves samples for a session, ordered by source_id ASC.
func (s *SourceLatencyStore) GetBySession(ctx context.Context, sessionID string) ([]*domain.SourceLatencySample, error) {
	query := `
		SELECT session_id, source_id, status, events_count,
		       first_event_latency_ms, total_latency_ms, recorded_at
		FROM source_latency
		WHERE session_id = ?
		ORDER BY source_id ASC
	`

	rows, err := s.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query by session: %w", err)
	}
	defer rows.Close()

	var samples []*domain.SourceLatencySample
	for rows.Next() {
		var sample domain.SourceLatencySample
		var statusStr string
		var eventsCount uint32
		var recordedAt time.Time
		err := rows.Scan(
			&sample.SessionID,
			&sample.SourceID,
			&statusStr,
			&eventsCount,
			&sample.FirstEventLatencyMs,
			&sample.TotalLatencyMs,
			&recordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan latency row: %w", err)
		}
		sample.Status = domain.SourceStatus(statusStr)
		sample.EventsCount = int(eventsCount)
		sample.RecordedAt = recordedAt.UnixMilli()
		samples = append(samples, &sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latency rows: %w", err)
	}

	return samples, nil
}
