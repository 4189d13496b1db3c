package stream

import (
	"fmt"

	"event-radar/internal/domain"
	"event-radar/internal/ingest"
)

// Wire frame types delivered by the upstream fanout.
const (
	frameBatch       = "batch"
	frameSourceEmpty = "source_empty"
	frameSourceError = "source_error"
	frameInfo        = "info"
	frameComplete    = "complete"
)

// searchRequest is the first message written on a new connection.
type searchRequest struct {
	QueryLocation string  `json:"query_location"`
	Options       Options `json:"options"`
}

// wireFrame is the JSON shape of one stream frame.
type wireFrame struct {
	Type      string                 `json:"type"`
	SourceID  string                 `json:"source_id,omitempty"`
	ElapsedMs int64                  `json:"elapsed_ms,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Events    []*ingest.RawCandidate `json:"events,omitempty"`
}

// decodeFrame converts a validated wire frame into a typed stream event.
// For batch frames the raw candidates pass through the ingestion adapter;
// the second return value is the number of malformed records dropped.
func decodeFrame(f *wireFrame) (domain.StreamEvent, int, error) {
	switch f.Type {
	case frameBatch:
		candidates, dropped := ingest.DecodeBatch(f.Events, f.SourceID)
		return domain.StreamEvent{
			Kind:       domain.StreamBatch,
			SourceID:   f.SourceID,
			Candidates: candidates,
			ElapsedMs:  f.ElapsedMs,
		}, dropped, nil
	case frameSourceEmpty:
		return domain.StreamEvent{
			Kind:      domain.StreamSourceEmpty,
			SourceID:  f.SourceID,
			ElapsedMs: f.ElapsedMs,
		}, 0, nil
	case frameSourceError:
		return domain.StreamEvent{
			Kind:      domain.StreamSourceError,
			SourceID:  f.SourceID,
			ElapsedMs: f.ElapsedMs,
			Message:   f.Message,
		}, 0, nil
	case frameInfo:
		return domain.StreamEvent{
			Kind:    domain.StreamInfo,
			Message: f.Message,
		}, 0, nil
	case frameComplete:
		return domain.StreamEvent{Kind: domain.StreamComplete}, 0, nil
	default:
		return domain.StreamEvent{}, 0, fmt.Errorf("unknown frame type %q", f.Type)
	}
}
