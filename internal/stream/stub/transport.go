// Package stub provides a scripted in-memory transport for testing.
package stub

import (
	"context"
	"sync"
	"sync/atomic"

	"event-radar/internal/domain"
	"event-radar/internal/stream"
)

// Transport records every opened subscription so tests can drive and
// inspect them individually. Implements stream.Transport.
type Transport struct {
	mu      sync.Mutex
	subs    []*Subscription
	openErr error
}

// NewTransport creates a stub transport.
func NewTransport() *Transport {
	return &Transport{}
}

// FailNextOpen makes the next Open call return err synchronously.
func (t *Transport) FailNextOpen(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openErr = err
}

// Open returns a fresh scripted subscription.
func (t *Transport) Open(_ context.Context, queryLocation string, _ stream.Options) (stream.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.openErr != nil {
		err := t.openErr
		t.openErr = nil
		return nil, err
	}

	sub := &Subscription{
		QueryLocation: queryLocation,
		events:        make(chan domain.StreamEvent, 64),
	}
	t.subs = append(t.subs, sub)
	return sub, nil
}

// OpenCount returns how many subscriptions were opened.
func (t *Transport) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Sub returns the i-th opened subscription.
func (t *Transport) Sub(i int) *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subs[i]
}

// Last returns the most recently opened subscription.
func (t *Transport) Last() *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subs[len(t.subs)-1]
}

// Subscription is a scripted stream. Close only marks the subscription
// closed without closing the event channel, mirroring a real transport
// whose teardown is asynchronous: late events can still be delivered after
// Close, which is exactly the race the session manager must survive.
type Subscription struct {
	QueryLocation string

	events     chan domain.StreamEvent
	closed     atomic.Bool
	terminated atomic.Bool

	errMu sync.Mutex
	err   error
}

// Events delivers the scripted events.
func (s *Subscription) Events() <-chan domain.StreamEvent {
	return s.events
}

// Err reports the scripted fatal error, if any.
func (s *Subscription) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close marks the subscription closed. Idempotent. The event channel
// stays open so tests can simulate in-flight events racing teardown.
func (s *Subscription) Close() error {
	s.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

// Emit delivers one scripted event. Safe to call after Close; events
// emitted after Terminate are dropped.
func (s *Subscription) Emit(ev domain.StreamEvent) {
	if s.terminated.Load() {
		return
	}
	s.events <- ev
}

// Complete emits the end-of-stream event and closes the channel.
func (s *Subscription) Complete() {
	s.Emit(domain.StreamEvent{Kind: domain.StreamComplete})
	s.Terminate()
}

// Fail records a transport-level fatal error and closes the channel
// without a COMPLETE event.
func (s *Subscription) Fail(err error) {
	s.errMu.Lock()
	s.err = err
	s.errMu.Unlock()
	s.Terminate()
}

// Terminate closes the event channel, ending any consumer loop.
func (s *Subscription) Terminate() {
	if s.terminated.Swap(true) {
		return
	}
	close(s.events)
}

// Verify interface compliance at compile time.
var (
	_ stream.Transport    = (*Transport)(nil)
	_ stream.Subscription = (*Subscription)(nil)
)
