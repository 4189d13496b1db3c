// Package stream defines the transport boundary of the engine: a
// subscription that delivers typed events for one search session from an
// unknown number of upstream sources.
package stream

import (
	"context"

	"event-radar/internal/domain"
)

// Options is caller-supplied configuration passed through to the upstream
// fanout verbatim. The engine does not interpret it.
type Options struct {
	// RegionHint is a previously-resolved broader region the upstream may
	// use to widen the search.
	RegionHint string `json:"region_hint,omitempty"`
	// Extra carries any additional opaque settings.
	Extra map[string]string `json:"extra,omitempty"`
}

// Transport opens one subscription per search session.
type Transport interface {
	// Open starts a search for the given location and returns a live
	// subscription. A synchronous error here is the only hard failure the
	// engine escalates to its caller.
	Open(ctx context.Context, queryLocation string, opts Options) (Subscription, error)
}

// Subscription is the single disposable transport resource a session owns.
// Opening a new session disposes the previous subscription before
// proceeding; disposal is necessary for cleanup but the session manager
// additionally discards events tagged with a superseded session.
type Subscription interface {
	// Events delivers typed stream events. The channel closes after a
	// COMPLETE event or on a transport-level fatal error.
	Events() <-chan domain.StreamEvent

	// Err reports the transport-level fatal error, if any, once Events
	// has closed. A nil error after close means the stream ended cleanly.
	Err() error

	// Close releases the subscription. Idempotent; safe to call on an
	// already-closed subscription.
	Close() error
}
