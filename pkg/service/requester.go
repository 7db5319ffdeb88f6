package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benita-io/benita-go/pkg/command"
	"github.com/benita-io/benita-go/pkg/ezo"
	"github.com/benita-io/benita-go/pkg/log"
	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/transport"
	"github.com/benita-io/benita-go/pkg/wire"
)

// RequesterConfig configures a Requester.
type RequesterConfig struct {
	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// ProtocolLogger receives frame and message events (optional).
	ProtocolLogger log.Logger

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Requester forwards recognized commands to a remote responder.
type Requester struct {
	kind    sensor.Kind
	grammar *command.Grammar
	socket  transport.RequestSocket
	plog    log.Logger
	logger  *slog.Logger
	url     string
	connID  string

	mu     sync.Mutex
	nextID uint32
}

// NewRequester connects to the responder at url.
func NewRequester(ctx context.Context, kind sensor.Kind, url string, config RequesterConfig) (*Requester, error) {
	if ezo.Grammar(kind) == nil {
		return nil, fmt.Errorf("%w: unsupported sensor kind %s", ErrTransportSetup, kind)
	}

	sock, err := transport.Dial(ctx, url, transport.ReqConfig{
		MaxMessageSize: config.MaxMessageSize,
		Logger:         config.ProtocolLogger,
		Kind:           kind,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportSetup, err)
	}

	r := newRequester(kind, sock, config)
	r.url = url
	r.connID = sock.ConnID()
	r.logger.Debug("connected", slog.String("url", url), slog.String("kind", kind.String()))
	return r, nil
}

func newRequester(kind sensor.Kind, sock transport.RequestSocket, config RequesterConfig) *Requester {
	return &Requester{
		kind:    kind,
		grammar: ezo.Grammar(kind),
		socket:  sock,
		plog:    config.ProtocolLogger,
		logger:  orDiscard(config.Logger),
		nextID:  1,
	}
}

// Kind returns the sensor kind.
func (r *Requester) Kind() sensor.Kind {
	return r.kind
}

// URL returns the responder URL.
func (r *Requester) URL() string {
	return r.url
}

// Evaluate dispatches line and, if recognized, forwards it and waits for
// the reply. Unrecognized input returns command.NotRecognized without
// sending anything.
func (r *Requester) Evaluate(ctx context.Context, line string) (string, error) {
	outcome := r.grammar.Dispatch(line)
	if !outcome.Matched() {
		return command.NotRecognized, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	req := &wire.Request{
		MessageID: r.allocID(),
		Kind:      r.kind,
		Command:   outcome.Command.String(),
	}
	data, err := wire.EncodeRequest(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}

	r.logMessage(log.DirectionOut, &log.MessageEvent{
		Type:      log.MessageTypeRequest,
		MessageID: req.MessageID,
		Command:   req.Command,
	})

	if err := r.socket.Send(ctx, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	raw, err := r.socket.Receive(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp, err := wire.DecodeResponse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	status := resp.Status
	r.logMessage(log.DirectionIn, &log.MessageEvent{
		Type:      log.MessageTypeResponse,
		MessageID: resp.MessageID,
		Status:    &status,
		Text:      resp.Text,
	})

	switch resp.Status {
	case wire.StatusOK, wire.StatusNotRecognized, wire.StatusExecutionFailed:
	default:
		return "", fmt.Errorf("%w: %s: %s", ErrRemote, resp.Status, resp.Text)
	}
	if resp.MessageID != req.MessageID {
		return "", fmt.Errorf("%w: reply to message %d, expected %d", ErrTransport, resp.MessageID, req.MessageID)
	}
	if resp.Status == wire.StatusExecutionFailed {
		r.logger.Debug("remote execution failed", slog.String("command", req.Command))
	}
	return resp.Text, nil
}

// allocID returns the next message id, skipping the reserved zero.
func (r *Requester) allocID() uint32 {
	id := r.nextID
	r.nextID++
	if r.nextID == wire.ReservedMessageID {
		r.nextID++
	}
	return id
}

func (r *Requester) logMessage(dir log.Direction, msg *log.MessageEvent) {
	if r.plog == nil {
		return
	}
	r.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: r.connID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleRequester,
		RemoteAddr:   r.url,
		Kind:         r.kind,
		Message:      msg,
	})
}

// Close releases the socket.
func (r *Requester) Close() error {
	return r.socket.Close()
}
