package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/benita-io/benita-go/pkg/log"
	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/google/uuid"
)

// DefaultInboxSize is the number of received requests buffered ahead of
// the serve loop.
const DefaultInboxSize = 16

// RepConfig configures a reply socket.
type RepConfig struct {
	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// InboxSize bounds queued requests (default: DefaultInboxSize).
	InboxSize int

	// Logger for protocol logging (optional).
	Logger log.Logger

	// Kind is recorded in protocol log events.
	Kind sensor.Kind
}

// Inbound is one received request and the connection it arrived on.
type Inbound struct {
	Data       []byte
	ConnID     string
	RemoteAddr string
}

// RepSocket is the binding side of a request/reply pair. Any number of
// requesters may connect; requests are handed out one at a time and each
// reply goes back to the connection its request came from.
type RepSocket struct {
	config   RepConfig
	endpoint Endpoint
	listener net.Listener

	inbox chan Inbound
	errCh chan error
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	conns   map[string]*repConn
	current string
	pending bool
	closed  bool
}

type repConn struct {
	id     string
	remote string
	conn   net.Conn
	framer *Framer
	meta   LogMeta
}

// Listen binds a reply socket to url and starts accepting connections.
func Listen(ctx context.Context, rawURL string, config RepConfig) (*RepSocket, error) {
	ep, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.InboxSize <= 0 {
		config.InboxSize = DefaultInboxSize
	}

	if ep.Network == "unix" {
		// A socket file left by a previous run blocks the bind.
		if fi, err := os.Lstat(ep.Address); err == nil && fi.Mode()&os.ModeSocket != 0 {
			_ = os.Remove(ep.Address)
		}
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, ep.Network, ep.Address)
	if err != nil {
		return nil, fmt.Errorf("listen failed: %w", err)
	}

	s := &RepSocket{
		config:   config,
		endpoint: ep,
		listener: listener,
		inbox:    make(chan Inbound, config.InboxSize),
		errCh:    make(chan error, 1),
		done:     make(chan struct{}),
		conns:    make(map[string]*repConn),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Addr returns the bound address.
func (s *RepSocket) Addr() net.Addr {
	return s.listener.Addr()
}

// Endpoint returns the bound endpoint, with the actual port for tcp.
func (s *RepSocket) Endpoint() Endpoint {
	return Endpoint{Network: s.endpoint.Network, Address: s.listener.Addr().String()}
}

// ConnectionCount returns the number of connected requesters.
func (s *RepSocket) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *RepSocket) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case s.errCh <- fmt.Errorf("accept failed: %w", err):
			default:
			}
			return
		}
		s.addConn(conn)
	}
}

func (s *RepSocket) addConn(conn net.Conn) {
	remote := s.endpoint.String()
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		remote = addr.String()
	}

	c := &repConn{
		id:     uuid.New().String(),
		remote: remote,
		conn:   conn,
		framer: NewFramerWithMaxSize(conn, s.config.MaxMessageSize),
	}
	c.meta = LogMeta{
		ConnID:     c.id,
		RemoteAddr: remote,
		Role:       log.RoleResponder,
		Kind:       s.config.Kind,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[c.id] = c
	s.mu.Unlock()

	if s.config.Logger != nil {
		c.framer.SetLogger(s.config.Logger, c.meta)
		logConnState(s.config.Logger, c.meta, "", "CONNECTED")
	}

	s.wg.Add(1)
	go s.readLoop(c)
}

func (s *RepSocket) readLoop(c *repConn) {
	defer s.wg.Done()

	reason := "closed"
	defer func() { s.removeConn(c, reason) }()

	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				reason = err.Error()
			}
			return
		}

		select {
		case s.inbox <- Inbound{Data: data, ConnID: c.id, RemoteAddr: c.remote}:
		case <-s.done:
			return
		}
	}
}

func (s *RepSocket) removeConn(c *repConn, reason string) {
	s.mu.Lock()
	_, ok := s.conns[c.id]
	delete(s.conns, c.id)
	s.mu.Unlock()

	c.conn.Close()
	if ok && s.config.Logger != nil {
		logConnStateReason(s.config.Logger, c.meta, "CONNECTED", "DISCONNECTED", reason)
	}
}

// Receive blocks until a request arrives. The reply to it must be sent
// before the next Receive.
func (s *RepSocket) Receive(ctx context.Context) (Inbound, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Inbound{}, ErrConnectionClosed
	}
	if s.pending {
		s.mu.Unlock()
		return Inbound{}, ErrInvalidState
	}
	s.mu.Unlock()

	select {
	case in := <-s.inbox:
		s.mu.Lock()
		s.current = in.ConnID
		s.pending = true
		s.mu.Unlock()
		return in, nil
	case err := <-s.errCh:
		return Inbound{}, err
	case <-s.done:
		return Inbound{}, ErrConnectionClosed
	case <-ctx.Done():
		return Inbound{}, ctx.Err()
	}
}

// Send delivers the reply to the last received request. If that
// requester has disconnected, Send returns ErrPeerGone and the socket
// stays usable.
func (s *RepSocket) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrConnectionClosed
	}
	if !s.pending {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.pending = false
	c := s.conns[s.current]
	s.mu.Unlock()

	if c == nil {
		return ErrPeerGone
	}

	stop := context.AfterFunc(ctx, func() { c.conn.SetWriteDeadline(time.Now()) })
	defer stop()

	if err := c.framer.WriteFrame(data); err != nil {
		if errors.Is(err, ErrMessageEmpty) || errors.Is(err, ErrMessageTooLarge) {
			return err
		}
		c.conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrPeerGone, err)
	}
	return nil
}

// Close stops accepting, drops every connection and waits for the
// socket's goroutines to exit. It is safe to call more than once.
func (s *RepSocket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	conns := make([]*repConn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	err := s.listener.Close()
	for _, c := range conns {
		c.conn.Close()
	}
	s.wg.Wait()
	return err
}
