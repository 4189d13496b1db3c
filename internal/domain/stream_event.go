package domain

// StreamEventKind identifies the type of a stream event delivered by the
// transport for the active session.
type StreamEventKind string

const (
	// StreamBatch carries a batch of candidates from one source.
	StreamBatch StreamEventKind = "BATCH"
	// StreamSourceEmpty signals that a source finished with zero results.
	StreamSourceEmpty StreamEventKind = "SOURCE_EMPTY"
	// StreamSourceError signals that a single source failed or timed out.
	// Never fatal for the session.
	StreamSourceError StreamEventKind = "SOURCE_ERROR"
	// StreamInfo is an informational notice (for example "expanding search
	// to a broader area"); it never mutates the accumulated set.
	StreamInfo StreamEventKind = "INFO"
	// StreamComplete is the explicit end-of-stream signal.
	StreamComplete StreamEventKind = "COMPLETE"
)

// IsValid checks if the kind is a valid value.
func (k StreamEventKind) IsValid() bool {
	switch k {
	case StreamBatch, StreamSourceEmpty, StreamSourceError, StreamInfo, StreamComplete:
		return true
	}
	return false
}

// StreamEvent is one typed event delivered by the transport. Sources
// complete independently, in any order and at any rate; the engine only
// reacts to events as they arrive.
type StreamEvent struct {
	Kind       StreamEventKind
	SourceID   string            // producing source, empty for INFO/COMPLETE
	Candidates []*EventCandidate // populated for BATCH only
	ElapsedMs  int64             // transport-measured time since search start
	Message    string            // error detail or informational text
}
