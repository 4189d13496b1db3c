// Package session owns the lifecycle of the single active search session:
// it opens the upstream subscription, folds arriving batches into the
// accumulated set, tracks per-source diagnostics, and guarantees that a
// superseded session can never leak events into its successor.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"event-radar/internal/dedup"
	"event-radar/internal/diagnostics"
	"event-radar/internal/domain"
	"event-radar/internal/observability"
	"event-radar/internal/storage"
	"event-radar/internal/stream"
)

const defaultArchiveTimeout = 10 * time.Second

// Manager runs at most one live session at a time. Starting a new search
// aborts any non-terminal session first; the terminal session's results
// stay visible until the next session replaces it.
type Manager struct {
	transport stream.Transport
	engine    *dedup.Engine
	logger    zerolog.Logger

	archive        storage.SessionArchiveStore
	latency        storage.SourceLatencyStore
	archiveTimeout time.Duration

	// startMu serializes StartSearch: finalizing the predecessor, opening
	// the new subscription and installing the new session must be atomic
	// with respect to other starts, or two racing starts can both observe
	// the same predecessor and orphan a never-finalized session.
	startMu sync.Mutex

	mu       sync.Mutex
	active   *state
	sessions map[string]*state

	// updates is a coalesced change signal: capacity one, non-blocking
	// sends. Observers re-snapshot on receive; a missed signal is fine
	// because a newer one is already pending.
	updates chan struct{}
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	Transport stream.Transport
	Engine    *dedup.Engine
	Logger    zerolog.Logger

	// Archive and Latency are optional; nil disables archival of
	// terminated sessions.
	Archive storage.SessionArchiveStore
	Latency storage.SourceLatencyStore

	// ArchiveTimeout bounds the storage writes performed at session
	// termination. Zero means a 10s default.
	ArchiveTimeout time.Duration
}

// NewManager creates a session manager with the provided transport, dedup
// engine and optional archive stores.
func NewManager(opts ManagerOptions) *Manager {
	timeout := opts.ArchiveTimeout
	if timeout <= 0 {
		timeout = defaultArchiveTimeout
	}
	return &Manager{
		transport:      opts.Transport,
		engine:         opts.Engine,
		logger:         opts.Logger,
		archive:        opts.Archive,
		latency:        opts.Latency,
		archiveTimeout: timeout,
		sessions:       make(map[string]*state),
		updates:        make(chan struct{}, 1),
	}
}

// Updates returns a coalesced notification channel that receives a signal
// whenever observable session state changes. Consumers should call
// Snapshot after each receive; intermediate states may be skipped.
func (m *Manager) Updates() <-chan struct{} {
	return m.updates
}

func (m *Manager) notify() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

// state is the mutable heart of one session. All fields behind the
// Manager mutex; the consume goroutine is the single writer once the
// session is live.
type state struct {
	id        string
	query     string
	status    domain.SessionStatus
	startedAt time.Time
	endedAt   time.Time

	accumulated []*domain.EventCandidate
	diags       map[string]*domain.SourceDiagnostic
	summary     string

	sub  stream.Subscription
	done chan struct{} // closed exactly once, after the terminal state is archived
}

// Snapshot is a read-only copy of the observable session state.
type Snapshot struct {
	SessionID   string
	Query       string
	Status      domain.SessionStatus
	StartedAt   time.Time
	EndedAt     time.Time
	Events      []*domain.EventCandidate
	Diagnostics map[string]*domain.SourceDiagnostic

	// Summary is set once the session reaches a terminal state.
	Summary       string
	FastestSource string
	SlowestSource string
}

// StartSearch supersedes any non-terminal session, opens a fresh
// subscription and starts consuming it. The returned session ID
// identifies the new session in snapshots and archives.
//
// A synchronous transport failure is the only error surfaced to the
// caller; everything after a successful open degrades to partial results
// plus diagnostics.
func (m *Manager) StartSearch(ctx context.Context, queryLocation string, opts stream.Options) (string, error) {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.mu.Lock()
	old := m.active
	m.mu.Unlock()

	if old != nil {
		if m.finalize(old, domain.SessionAborted) {
			observability.DefaultMetrics.SessionsSuperseded.Inc()
			m.logger.Info().
				Str("session_id", old.id).
				Msg("session superseded by new search")
		}
	}

	st := &state{
		id:        NewID(),
		query:     queryLocation,
		status:    domain.SessionConnecting,
		startedAt: time.Now(),
		diags:     make(map[string]*domain.SourceDiagnostic),
		done:      make(chan struct{}),
	}

	sub, err := m.transport.Open(ctx, queryLocation, opts)
	if err != nil {
		return "", fmt.Errorf("open stream: %w", err)
	}
	st.sub = sub

	m.mu.Lock()
	m.active = st
	m.sessions[st.id] = st
	m.mu.Unlock()

	observability.DefaultMetrics.SessionsStarted.Inc()
	m.notify()
	m.logger.Info().
		Str("session_id", st.id).
		Str("query", queryLocation).
		Msg("session started")

	go m.consume(st)
	return st.id, nil
}

// Cancel aborts the active session, if any. Reports whether a session was
// actually aborted. The aborted session's partial results remain visible
// in snapshots until a new search replaces them.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	st := m.active
	m.mu.Unlock()

	if st == nil {
		return false
	}
	if !m.finalize(st, domain.SessionAborted) {
		return false
	}
	m.logger.Info().Str("session_id", st.id).Msg("session cancelled")
	return true
}

// Snapshot returns a copy of the active (or most recently terminated)
// session's observable state. The second return is false when no search
// has been started yet.
func (m *Manager) Snapshot() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.active
	if st == nil {
		return Snapshot{}, false
	}
	return m.snapshotLocked(st), true
}

// SnapshotByID returns a copy of any known session's state, including
// superseded ones.
func (m *Manager) SnapshotByID(sessionID string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[sessionID]
	if !ok {
		return Snapshot{}, false
	}
	return m.snapshotLocked(st), true
}

// Done returns a channel closed once the session has reached a terminal
// state and its archival writes have finished. Unknown IDs get an
// already-closed channel.
func (m *Manager) Done(sessionID string) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.sessions[sessionID]; ok {
		return st.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

func (m *Manager) snapshotLocked(st *state) Snapshot {
	snap := Snapshot{
		SessionID:     st.id,
		Query:         st.query,
		Status:        st.status,
		StartedAt:     st.startedAt,
		EndedAt:       st.endedAt,
		Summary:       st.summary,
		FastestSource: diagnostics.FastestSource(st.diags),
		SlowestSource: diagnostics.SlowestSource(st.diags),
	}
	snap.Events = make([]*domain.EventCandidate, 0, len(st.accumulated))
	for _, c := range st.accumulated {
		snap.Events = append(snap.Events, c.Clone())
	}
	snap.Diagnostics = make(map[string]*domain.SourceDiagnostic, len(st.diags))
	for id, d := range st.diags {
		snap.Diagnostics[id] = d.Clone()
	}
	return snap
}

// consume is the single logical consumer loop of one session. It exits
// when the stream ends, the transport fails, or the session is finalized
// from outside (cancel or supersession).
func (m *Manager) consume(st *state) {
	for {
		select {
		case ev, ok := <-st.sub.Events():
			if !ok {
				if err := st.sub.Err(); err != nil {
					// Transport-level fatal error. Partial results are a
					// valid terminal state, not discarded.
					m.logger.Warn().
						Str("session_id", st.id).
						Err(err).
						Msg("transport failed, aborting with partial results")
					m.finalize(st, domain.SessionAborted)
				} else {
					m.finalize(st, domain.SessionComplete)
				}
				return
			}
			if m.apply(st, ev) {
				m.finalize(st, domain.SessionComplete)
				return
			}
		case <-st.done:
			// Finalized from outside; stop consuming. Late events on the
			// old subscription are dropped by apply's session check anyway.
			return
		}
	}
}

// apply dispatches one stream event into the session under the manager
// mutex. Returns true when the stream signalled completion.
//
// Events from a session that is no longer active are discarded here. This
// check, not subscription teardown, is what enforces session isolation:
// teardown is asynchronous and can race new-session setup.
func (m *Manager) apply(st *state, ev domain.StreamEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != st || st.status.IsTerminal() {
		observability.RecordStaleDrop()
		m.logger.Debug().
			Str("session_id", st.id).
			Str("kind", string(ev.Kind)).
			Msg("dropped stale event from superseded session")
		return false
	}

	if st.status == domain.SessionConnecting {
		st.status = domain.SessionStreaming
	}

	switch ev.Kind {
	case domain.StreamBatch:
		m.applyBatch(st, ev)

	case domain.StreamSourceEmpty:
		d := st.diag(ev.SourceID)
		d.Status = domain.SourceSuccess
		v := ev.ElapsedMs
		d.TotalLatencyMs = &v

	case domain.StreamSourceError:
		d := st.diag(ev.SourceID)
		if strings.Contains(strings.ToLower(ev.Message), "timeout") {
			d.Status = domain.SourceTimeout
		} else {
			d.Status = domain.SourceFailed
		}
		d.Message = ev.Message
		v := ev.ElapsedMs
		d.TotalLatencyMs = &v
		observability.RecordSourceError(ev.SourceID)
		m.logger.Debug().
			Str("session_id", st.id).
			Str("source_id", ev.SourceID).
			Str("message", ev.Message).
			Msg("source reported error")

	case domain.StreamInfo:
		// Informational only; never mutates the accumulated set.
		m.logger.Info().
			Str("session_id", st.id).
			Str("message", ev.Message).
			Msg("stream notice")

	case domain.StreamComplete:
		return true
	}

	m.notify()
	return false
}

// applyBatch folds one candidate batch into the accumulated set and
// updates the producing source's diagnostic. Caller holds the mutex.
func (m *Manager) applyBatch(st *state, ev domain.StreamEvent) {
	d := st.diag(ev.SourceID)
	d.Status = domain.SourceSuccess
	d.EventsCount += len(ev.Candidates)
	if d.FirstEventLatencyMs == nil {
		v := ev.ElapsedMs
		d.FirstEventLatencyMs = &v
		observability.RecordFirstEvent(ev.SourceID, float64(ev.ElapsedMs)/1000)
	}
	v := ev.ElapsedMs
	d.TotalLatencyMs = &v

	// Re-run the fold over the entire accumulated set, not just the new
	// batch: a later candidate may be the higher-quality duplicate of an
	// earlier kept one from another source.
	st.accumulated = append(st.accumulated, ev.Candidates...)
	started := time.Now()
	res := m.engine.Deduplicate(st.accumulated)
	st.accumulated = res.Kept

	observability.RecordBatch(ev.SourceID, len(ev.Candidates))
	observability.RecordDedup(len(res.Kept), res.Merged, time.Since(started).Seconds())

	m.logger.Debug().
		Str("session_id", st.id).
		Str("source_id", ev.SourceID).
		Int("batch", len(ev.Candidates)).
		Int("kept", len(res.Kept)).
		Int("merged", res.Merged).
		Msg("batch folded")
}

// diag returns the diagnostic entry for a source, creating it on first
// observation. Entries are mutated in place and never deleted.
func (st *state) diag(sourceID string) *domain.SourceDiagnostic {
	d, ok := st.diags[sourceID]
	if !ok {
		d = &domain.SourceDiagnostic{SourceID: sourceID, Status: domain.SourcePending}
		st.diags[sourceID] = d
	}
	return d
}

// finalize transitions a session to a terminal state exactly once,
// releases its subscription and archives the outcome. Reports whether
// this call performed the transition.
func (m *Manager) finalize(st *state, status domain.SessionStatus) bool {
	m.mu.Lock()
	if st.status.IsTerminal() {
		m.mu.Unlock()
		return false
	}
	st.status = status
	st.endedAt = time.Now()
	st.summary = diagnostics.Summary(st.diags, len(st.accumulated))
	rec, events, samples := m.buildArchiveLocked(st)
	m.mu.Unlock()

	// Close exactly once per session; the Subscription contract makes a
	// second Close harmless.
	if err := st.sub.Close(); err != nil {
		m.logger.Warn().Str("session_id", st.id).Err(err).Msg("close subscription")
	}

	switch status {
	case domain.SessionComplete:
		observability.DefaultMetrics.SessionsCompleted.Inc()
	case domain.SessionAborted:
		observability.DefaultMetrics.SessionsAborted.Inc()
	}

	m.logger.Info().
		Str("session_id", st.id).
		Str("status", status.String()).
		Int("events", rec.EventsTotal).
		Str("summary", rec.Summary).
		Msg("session finished")

	m.archiveSession(rec, events, samples)
	close(st.done)
	m.notify()
	return true
}

// buildArchiveLocked assembles the archive records from terminal session
// state. Caller holds the mutex.
func (m *Manager) buildArchiveLocked(st *state) (*domain.SessionRecord, []*domain.EventCandidate, []*domain.SourceLatencySample) {
	rec := &domain.SessionRecord{
		SessionID:        st.id,
		Query:            st.query,
		Status:           st.status,
		StartedAt:        st.startedAt.UnixMilli(),
		EndedAt:          st.endedAt.UnixMilli(),
		EventsTotal:      len(st.accumulated),
		SourcesTotal:     len(st.diags),
		SourcesSucceeded: diagnostics.Succeeded(st.diags),
		Summary:          st.summary,
	}

	events := make([]*domain.EventCandidate, 0, len(st.accumulated))
	for _, c := range st.accumulated {
		events = append(events, c.Clone())
	}

	samples := make([]*domain.SourceLatencySample, 0, len(st.diags))
	for _, d := range st.diags {
		cp := d.Clone()
		samples = append(samples, &domain.SourceLatencySample{
			SessionID:           st.id,
			SourceID:            cp.SourceID,
			Status:              cp.Status,
			EventsCount:         cp.EventsCount,
			FirstEventLatencyMs: cp.FirstEventLatencyMs,
			TotalLatencyMs:      cp.TotalLatencyMs,
			RecordedAt:          rec.EndedAt,
		})
	}

	return rec, events, samples
}

// archiveSession persists the terminal outcome. Archive failures are
// logged, never escalated: the live result set has already been served.
func (m *Manager) archiveSession(rec *domain.SessionRecord, events []*domain.EventCandidate, samples []*domain.SourceLatencySample) {
	ctx, cancel := context.WithTimeout(context.Background(), m.archiveTimeout)
	defer cancel()

	if m.archive != nil {
		started := time.Now()
		err := m.archive.InsertSession(ctx, rec)
		observability.RecordDBQuery("postgres", "insert_session", time.Since(started).Seconds(), err)
		if err != nil {
			m.logger.Error().Str("session_id", rec.SessionID).Err(err).Msg("archive session")
		} else if len(events) > 0 {
			started = time.Now()
			err = m.archive.InsertEvents(ctx, rec.SessionID, events)
			observability.RecordDBQuery("postgres", "insert_events", time.Since(started).Seconds(), err)
			if err != nil {
				m.logger.Error().Str("session_id", rec.SessionID).Err(err).Msg("archive session events")
			}
		}
	}

	if m.latency != nil && len(samples) > 0 {
		started := time.Now()
		err := m.latency.InsertBulk(ctx, samples)
		observability.RecordDBQuery("clickhouse", "insert_latency", time.Since(started).Seconds(), err)
		if err != nil {
			m.logger.Error().Str("session_id", rec.SessionID).Err(err).Msg("archive latency samples")
		}
	}
}
