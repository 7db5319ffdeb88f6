package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/benita-io/benita-go/pkg/command"
	"github.com/benita-io/benita-go/pkg/driver"
	"github.com/benita-io/benita-go/pkg/ezo"
	"github.com/benita-io/benita-go/pkg/log"
	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/transport"
	"github.com/benita-io/benita-go/pkg/wire"
)

// DefaultQuiescence is the pause after each reply before the next request
// is accepted.
const DefaultQuiescence = 100 * time.Millisecond

// ResponderState is the serve loop state.
type ResponderState uint32

const (
	StateIdle ResponderState = iota
	StateAwaitingRequest
	StateDispatching
	StateReplying
	StateQuiescent
	StateStopped
)

// String returns the state name used in protocol logs.
func (s ResponderState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAwaitingRequest:
		return "AWAITING_REQUEST"
	case StateDispatching:
		return "DISPATCHING"
	case StateReplying:
		return "REPLYING"
	case StateQuiescent:
		return "QUIESCENT"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("STATE(%d)", uint32(s))
	}
}

// MetricsRecorder receives per-request measurements. Implemented by
// metrics.Collector.
type MetricsRecorder interface {
	// ObserveRequest records one answered request.
	ObserveRequest(kind sensor.Kind, status wire.Status, elapsed time.Duration)

	// ObserveExecutionFailure records a recognized command that failed on the device.
	ObserveExecutionFailure(kind sensor.Kind, command string)
}

// ResponderConfig configures a Responder.
type ResponderConfig struct {
	// Quiescence is the pause after each reply. Zero disables it.
	Quiescence time.Duration

	// Opener opens the device for OpenResponder (default: driver.Open).
	Opener DeviceOpener

	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// ProtocolLogger receives frame, message and state events (optional).
	ProtocolLogger log.Logger

	// Metrics receives request measurements (optional).
	Metrics MetricsRecorder

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultResponderConfig returns a ResponderConfig with sensible defaults.
func DefaultResponderConfig() ResponderConfig {
	return ResponderConfig{
		Quiescence: DefaultQuiescence,
		Opener:     driver.Open,
	}
}

// Responder serves requests from remote requesters against a local device.
type Responder struct {
	kind   sensor.Kind
	local  *Local
	socket transport.ReplySocket
	url    string
	config ResponderConfig
	logger *slog.Logger

	state atomic.Uint32
}

// NewResponder binds a reply socket at url and serves device. The
// Responder takes ownership of device.
func NewResponder(ctx context.Context, kind sensor.Kind, url string, device ezo.Transactor, config ResponderConfig) (*Responder, error) {
	local, err := NewLocal(kind, device, config.Logger)
	if err != nil {
		return nil, err
	}
	r, err := bindResponder(ctx, local, url, config)
	if err != nil {
		local.Close()
		return nil, err
	}
	return r, nil
}

// OpenResponder binds a reply socket at url, then opens the device at
// path and address. If the device cannot be opened, the socket is closed
// again and ErrDeviceInit is returned.
func OpenResponder(ctx context.Context, kind sensor.Kind, url, path string, address uint32, config ResponderConfig) (*Responder, error) {
	if ezo.Grammar(kind) == nil {
		return nil, fmt.Errorf("%w: unsupported sensor kind %s", ErrTransportSetup, kind)
	}
	sock, err := listen(ctx, kind, url, config)
	if err != nil {
		return nil, err
	}

	local, err := OpenLocal(kind, path, address, config.Opener, config.Logger)
	if err != nil {
		sock.Close()
		return nil, err
	}
	return newResponder(local, sock, url, config), nil
}

func bindResponder(ctx context.Context, local *Local, url string, config ResponderConfig) (*Responder, error) {
	sock, err := listen(ctx, local.Kind(), url, config)
	if err != nil {
		return nil, err
	}
	return newResponder(local, sock, url, config), nil
}

func listen(ctx context.Context, kind sensor.Kind, url string, config ResponderConfig) (*transport.RepSocket, error) {
	sock, err := transport.Listen(ctx, url, transport.RepConfig{
		MaxMessageSize: config.MaxMessageSize,
		Logger:         config.ProtocolLogger,
		Kind:           kind,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportSetup, err)
	}
	return sock, nil
}

func newResponder(local *Local, sock transport.ReplySocket, url string, config ResponderConfig) *Responder {
	return &Responder{
		kind:   local.Kind(),
		local:  local,
		socket: sock,
		url:    url,
		config: config,
		logger: orDiscard(config.Logger),
	}
}

// Kind returns the sensor kind.
func (r *Responder) Kind() sensor.Kind {
	return r.kind
}

// Endpoint returns the bound endpoint. For tcp URLs with port 0 it carries
// the actual port.
func (r *Responder) Endpoint() transport.Endpoint {
	if s, ok := r.socket.(*transport.RepSocket); ok {
		return s.Endpoint()
	}
	ep, _ := transport.ParseURL(r.url)
	return ep
}

// State returns the current serve loop state.
func (r *Responder) State() ResponderState {
	return ResponderState(r.state.Load())
}

// Evaluate dispatches line and executes it on the device. Unrecognized
// input and execution failures both yield command.NotRecognized.
func (r *Responder) Evaluate(ctx context.Context, line string) string {
	text, _ := r.evaluate(ctx, line)
	return text
}

func (r *Responder) evaluate(ctx context.Context, line string) (string, wire.Status) {
	outcome := r.local.grammar.Dispatch(line)
	if !outcome.Matched() {
		return command.NotRecognized, wire.StatusNotRecognized
	}

	reply, err := r.local.execute(ctx, outcome.Command)
	if err != nil {
		r.logger.Warn("command failed",
			slog.String("command", outcome.Command.String()),
			slog.Any("error", err))
		if r.config.Metrics != nil {
			r.config.Metrics.ObserveExecutionFailure(r.kind, outcome.Command.Name())
		}
		return command.NotRecognized, wire.StatusExecutionFailed
	}
	return command.Format(reply), wire.StatusOK
}

// Serve answers requests until ctx is cancelled, then returns nil. Any
// other return is a fatal transport error.
func (r *Responder) Serve(ctx context.Context) error {
	r.setState(StateAwaitingRequest, "serving")
	r.logger.Info("responder serving",
		slog.String("kind", r.kind.String()),
		slog.String("url", r.Endpoint().String()))

	for {
		in, err := r.socket.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.setState(StateStopped, "stop requested")
				return nil
			}
			r.setState(StateStopped, err.Error())
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}

		r.setState(StateDispatching, "")
		start := time.Now()
		resp := r.handle(ctx, in)

		data, err := wire.EncodeResponse(resp)
		if err != nil {
			r.setState(StateStopped, err.Error())
			return fmt.Errorf("encode response: %w", err)
		}

		r.setState(StateReplying, "")
		err = r.socket.Send(ctx, data)
		elapsed := time.Since(start)
		switch {
		case err == nil:
			r.logResponse(in, resp, elapsed)
			if r.config.Metrics != nil {
				r.config.Metrics.ObserveRequest(r.kind, resp.Status, elapsed)
			}
		case errors.Is(err, transport.ErrPeerGone):
			r.logger.Warn("requester disconnected before reply",
				slog.String("conn_id", in.ConnID),
				slog.Uint64("msg_id", uint64(resp.MessageID)))
		case ctx.Err() != nil:
			r.setState(StateStopped, "stop requested")
			return nil
		default:
			r.setState(StateStopped, err.Error())
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}

		if r.config.Quiescence > 0 {
			r.setState(StateQuiescent, "")
			select {
			case <-time.After(r.config.Quiescence):
			case <-ctx.Done():
				r.setState(StateStopped, "stop requested")
				return nil
			}
		}
		r.setState(StateAwaitingRequest, "")
	}
}

// handle decodes one request and builds its response.
func (r *Responder) handle(ctx context.Context, in transport.Inbound) *wire.Response {
	req, err := wire.DecodeRequest(in.Data)
	if err != nil {
		r.logger.Warn("invalid request", slog.String("conn_id", in.ConnID), slog.Any("error", err))
		return wire.NewResponse(req, wire.StatusInvalidRequest, err.Error())
	}

	r.logMessage(in, log.DirectionIn, &log.MessageEvent{
		Type:      log.MessageTypeRequest,
		MessageID: req.MessageID,
		Command:   req.Command,
	})

	if req.Kind != r.kind {
		return wire.NewResponse(req, wire.StatusKindMismatch,
			fmt.Sprintf("responder serves %s, not %s", r.kind, req.Kind))
	}

	text, status := r.evaluate(ctx, req.Command)
	r.logger.Debug("request handled",
		slog.Uint64("msg_id", uint64(req.MessageID)),
		slog.String("command", req.Command),
		slog.String("status", status.String()))
	return wire.NewResponse(req, status, text)
}

func (r *Responder) logResponse(in transport.Inbound, resp *wire.Response, elapsed time.Duration) {
	status := resp.Status
	r.logMessage(in, log.DirectionOut, &log.MessageEvent{
		Type:           log.MessageTypeResponse,
		MessageID:      resp.MessageID,
		Status:         &status,
		Text:           resp.Text,
		ProcessingTime: &elapsed,
	})
}

func (r *Responder) logMessage(in transport.Inbound, dir log.Direction, msg *log.MessageEvent) {
	if r.config.ProtocolLogger == nil {
		return
	}
	r.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: in.ConnID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleResponder,
		RemoteAddr:   in.RemoteAddr,
		Kind:         r.kind,
		Message:      msg,
	})
}

func (r *Responder) setState(next ResponderState, reason string) {
	prev := ResponderState(r.state.Swap(uint32(next)))
	if prev == next || r.config.ProtocolLogger == nil {
		return
	}
	r.config.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		LocalRole: log.RoleResponder,
		Kind:      r.kind,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityResponder,
			OldState: prev.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
}

// Close releases the socket and the device.
func (r *Responder) Close() error {
	sockErr := r.socket.Close()
	devErr := r.local.Close()
	return errors.Join(sockErr, devErr)
}
