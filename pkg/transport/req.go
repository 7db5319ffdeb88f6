package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/benita-io/benita-go/pkg/log"
	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/google/uuid"
)

// ReqConfig configures a request socket.
type ReqConfig struct {
	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// Logger for protocol logging (optional).
	Logger log.Logger

	// Kind is recorded in protocol log events.
	Kind sensor.Kind
}

// ReqSocket is the connecting side of a request/reply pair. Sends and
// receives must strictly alternate, starting with a send.
type ReqSocket struct {
	config   ReqConfig
	endpoint Endpoint
	conn     net.Conn
	framer   *Framer
	connID   string

	mu       sync.Mutex
	awaiting bool
	closed   bool
}

// Dial connects to the responder at url.
func Dial(ctx context.Context, rawURL string, config ReqConfig) (*ReqSocket, error) {
	ep, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, ep.Network, ep.Address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	s := &ReqSocket{
		config:   config,
		endpoint: ep,
		conn:     conn,
		framer:   NewFramerWithMaxSize(conn, config.MaxMessageSize),
		connID:   uuid.New().String(),
	}
	meta := s.meta()
	if config.Logger != nil {
		s.framer.SetLogger(config.Logger, meta)
		logConnState(config.Logger, meta, "", "CONNECTED")
	}
	return s, nil
}

func (s *ReqSocket) meta() LogMeta {
	return LogMeta{
		ConnID:     s.connID,
		RemoteAddr: s.endpoint.String(),
		Role:       log.RoleRequester,
		Kind:       s.config.Kind,
	}
}

// ConnID returns the unique connection identifier.
func (s *ReqSocket) ConnID() string {
	return s.connID
}

// Endpoint returns the dialed endpoint.
func (s *ReqSocket) Endpoint() Endpoint {
	return s.endpoint
}

// Send sends one request. It fails with ErrInvalidState if the reply to
// the previous request has not been received.
func (s *ReqSocket) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrConnectionClosed
	}
	if s.awaiting {
		return ErrInvalidState
	}

	stop := context.AfterFunc(ctx, func() { s.conn.SetWriteDeadline(time.Now()) })
	defer stop()

	if err := s.framer.WriteFrame(data); err != nil {
		return s.fail(ctx, err)
	}
	s.awaiting = true
	return nil
}

// Receive waits for the reply to the last request. There is no timeout;
// cancelling ctx aborts the wait and leaves the socket unusable.
func (s *ReqSocket) Receive(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrConnectionClosed
	}
	if !s.awaiting {
		return nil, ErrInvalidState
	}

	stop := context.AfterFunc(ctx, func() { s.conn.SetReadDeadline(time.Now()) })
	defer stop()

	data, err := s.framer.ReadFrame()
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	s.awaiting = false
	return data, nil
}

// fail closes the socket after an I/O error and maps the error.
// Callers hold s.mu.
func (s *ReqSocket) fail(ctx context.Context, err error) error {
	if errors.Is(err, ErrMessageEmpty) || errors.Is(err, ErrMessageTooLarge) {
		if !s.awaiting {
			// Rejected before anything was written.
			return err
		}
	}
	s.closeLocked("io error")
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, io.EOF) || errors.Is(err, ErrFrameTruncated) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return err
}

// Close closes the connection. It is safe to call more than once.
func (s *ReqSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked("")
}

func (s *ReqSocket) closeLocked(reason string) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.config.Logger != nil {
		logConnStateReason(s.config.Logger, s.meta(), "CONNECTED", "DISCONNECTED", reason)
	}
	return s.conn.Close()
}

func logConnState(logger log.Logger, meta LogMeta, oldState, newState string) {
	logConnStateReason(logger, meta, oldState, newState, "")
}

func logConnStateReason(logger log.Logger, meta LogMeta, oldState, newState, reason string) {
	e := meta.event(log.LayerTransport, log.CategoryState, log.DirectionIn)
	e.StateChange = &log.StateChangeEvent{
		Entity:   log.StateEntityConnection,
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	}
	logger.Log(e)
}
