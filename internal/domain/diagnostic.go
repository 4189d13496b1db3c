package domain

// SourceStatus represents the reporting state of one upstream source
// within a session.
type SourceStatus string

const (
	SourcePending SourceStatus = "PENDING"
	SourceSuccess SourceStatus = "SUCCESS"
	SourceFailed  SourceStatus = "FAILED"
	SourceTimeout SourceStatus = "TIMEOUT"
)

// String returns the string representation of SourceStatus.
func (s SourceStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s SourceStatus) IsValid() bool {
	switch s {
	case SourcePending, SourceSuccess, SourceFailed, SourceTimeout:
		return true
	}
	return false
}

// SourceDiagnostic tracks per-source progress for the active session.
// One entry per source that has sent at least one stream event; created on
// first observation, mutated in place, never deleted.
type SourceDiagnostic struct {
	SourceID            string
	Status              SourceStatus
	EventsCount         int
	FirstEventLatencyMs *int64 // set once, on the first candidate batch
	TotalLatencyMs      *int64 // last reported elapsed time for the source
	Message             string // error detail when Status is FAILED
}

// Clone returns a deep copy of the diagnostic.
func (d *SourceDiagnostic) Clone() *SourceDiagnostic {
	if d == nil {
		return nil
	}
	cp := *d
	if d.FirstEventLatencyMs != nil {
		v := *d.FirstEventLatencyMs
		cp.FirstEventLatencyMs = &v
	}
	if d.TotalLatencyMs != nil {
		v := *d.TotalLatencyMs
		cp.TotalLatencyMs = &v
	}
	return &cp
}

// SourceLatencySample is the archived form of a SourceDiagnostic,
// one row per source per terminated session.
// Corresponds to the source_latency table in ClickHouse.
type SourceLatencySample struct {
	SessionID           string
	SourceID            string
	Status              SourceStatus
	EventsCount         int
	FirstEventLatencyMs *int64
	TotalLatencyMs      *int64
	RecordedAt          int64 // Unix timestamp in milliseconds
}
