package memory

import (
	"context"
	"sort"
	"sync"

	"event-radar/internal/domain"
	"event-radar/internal/storage"
)

// SourceLatencyStore is an in-memory implementation of
// storage.SourceLatencyStore.
type SourceLatencyStore struct {
	mu      sync.RWMutex
	samples []*domain.SourceLatencySample
}

// NewSourceLatencyStore creates a new in-memory latency store.
func NewSourceLatencyStore() *SourceLatencyStore {
	return &SourceLatencyStore{}
}

// InsertBulk adds samples for one session.
func (s *SourceLatencyStore) InsertBulk(_ context.Context, samples []*domain.SourceLatencySample) error {
	for _, sample := range samples {
		if sample == nil || sample.SessionID == "" || sample.SourceID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sample := range samples {
		s.samples = append(s.samples, cloneSample(sample))
	}
	return nil
}

func cloneSample(sample *domain.SourceLatencySample) *domain.SourceLatencySample {
	cp := *sample
	if sample.FirstEventLatencyMs != nil {
		v := *sample.FirstEventLatencyMs
		cp.FirstEventLatencyMs = &v
	}
	if sample.TotalLatencyMs != nil {
		v := *sample.TotalLatencyMs
		cp.TotalLatencyMs = &v
	}
	return &cp
}

// GetBySession retrieves samples for a session, ordered by source_id ASC.
func (s *SourceLatencyStore) GetBySession(_ context.Context, sessionID string) ([]*domain.SourceLatencySample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SourceLatencySample
	for _, sample := range s.samples {
		if sample.SessionID == sessionID {
			result = append(result, cloneSample(sample))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SourceID < result[j].SourceID
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.SourceLatencyStore = (*SourceLatencyStore)(nil)
