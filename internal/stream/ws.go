package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"event-radar/internal/domain"
	"event-radar/internal/observability"
)

// WSConfig configures WebSocket transport behavior.
type WSConfig struct {
	// HandshakeTimeout bounds the initial dial.
	HandshakeTimeout time.Duration
	// ReadTimeout is the per-message read deadline. The upstream emits
	// keepalive pings well inside this window.
	ReadTimeout time.Duration
	// WriteTimeout is the deadline for writing the search request and
	// control frames.
	WriteTimeout time.Duration
	// PingInterval is the interval for client ping frames.
	PingInterval time.Duration
	// EventBuffer is the subscription channel capacity; bursts from many
	// sources finishing at once are absorbed here.
	EventBuffer int
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      120 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		EventBuffer:      256,
	}
}

// WSTransport implements Transport over a WebSocket connection to the
// upstream scraper fanout. Each Open dials a fresh connection; one
// connection serves exactly one session.
type WSTransport struct {
	endpoint string
	config   WSConfig
	logger   zerolog.Logger
}

// NewWSTransport creates a WebSocket transport for the given endpoint.
func NewWSTransport(endpoint string, config *WSConfig, logger zerolog.Logger) *WSTransport {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	return &WSTransport{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.With().Str("component", "ws-transport").Logger(),
	}
}

// Open dials the fanout, sends the search request and starts the reader.
func (t *WSTransport) Open(ctx context.Context, queryLocation string, opts Options) (Subscription, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: t.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	req := searchRequest{QueryLocation: queryLocation, Options: opts}
	conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write search request: %w", err)
	}

	sub := &wsSubscription{
		conn:   conn,
		config: t.config,
		logger: t.logger,
		events: make(chan domain.StreamEvent, t.config.EventBuffer),
		done:   make(chan struct{}),
	}

	sub.wg.Add(2)
	go sub.readLoop()
	go sub.pingLoop()

	return sub, nil
}

// wsSubscription is one live stream over one WebSocket connection.
type wsSubscription struct {
	conn   *websocket.Conn
	config WSConfig
	logger zerolog.Logger

	events chan domain.StreamEvent
	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup

	errMu sync.Mutex
	err   error
}

// Events delivers typed stream events for this subscription.
func (s *wsSubscription) Events() <-chan domain.StreamEvent {
	return s.events
}

// Err reports the transport-level fatal error once Events has closed.
func (s *wsSubscription) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close releases the connection. Idempotent.
func (s *wsSubscription) Close() error {
	if s.closed.Swap(true) {
		return nil // already closed
	}

	close(s.done)

	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(s.config.WriteTimeout))
	err := s.conn.Close()

	s.wg.Wait()
	return err
}

// readLoop reads frames until COMPLETE, a fatal error or Close.
func (s *wsSubscription) readLoop() {
	defer s.wg.Done()
	defer close(s.events)

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.setErr(fmt.Errorf("read frame: %w", err))
				s.logger.Warn().Err(err).Msg("stream connection lost")
			}
			return
		}

		frame, err := ValidateFrame(payload)
		if err != nil {
			// A single bad frame is a data-quality issue, not a reason to
			// drop the whole stream.
			s.logger.Warn().Err(err).Msg("discarding invalid frame")
			continue
		}

		event, dropped, err := decodeFrame(frame)
		if err != nil {
			s.logger.Warn().Err(err).Msg("discarding undecodable frame")
			continue
		}
		if dropped > 0 {
			observability.RecordDroppedCandidates(frame.SourceID, dropped)
			s.logger.Warn().
				Str("source_id", frame.SourceID).
				Int("dropped", dropped).
				Msg("malformed candidates dropped from batch")
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}

		if event.Kind == domain.StreamComplete {
			return
		}
	}
}

// pingLoop keeps the connection alive between frames.
func (s *wsSubscription) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			err := s.conn.WriteControl(websocket.PingMessage, nil,
				time.Now().Add(s.config.WriteTimeout))
			if err != nil && !s.closed.Load() {
				s.logger.Debug().Err(err).Msg("ping failed")
			}
		}
	}
}

func (s *wsSubscription) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Verify interface compliance at compile time.
var (
	_ Transport    = (*WSTransport)(nil)
	_ Subscription = (*wsSubscription)(nil)
)
