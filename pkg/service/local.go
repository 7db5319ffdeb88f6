package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/benita-io/benita-go/pkg/command"
	"github.com/benita-io/benita-go/pkg/driver"
	"github.com/benita-io/benita-go/pkg/ezo"
	"github.com/benita-io/benita-go/pkg/sensor"
)

// DeviceOpener opens the sensor device at path. driver.Open is the default.
type DeviceOpener func(path string, address uint32) (driver.Device, error)

// Local evaluates lines against a directly attached device.
type Local struct {
	kind    sensor.Kind
	grammar *command.Grammar
	device  ezo.Transactor
	logger  *slog.Logger
}

// NewLocal creates an evaluator for kind backed by device. The Local takes
// ownership of device; Close releases it.
func NewLocal(kind sensor.Kind, device ezo.Transactor, logger *slog.Logger) (*Local, error) {
	grammar := ezo.Grammar(kind)
	if grammar == nil {
		return nil, fmt.Errorf("%w: unsupported sensor kind %s", ErrDeviceInit, kind)
	}
	if device == nil {
		return nil, fmt.Errorf("%w: no device", ErrDeviceInit)
	}
	return &Local{
		kind:    kind,
		grammar: grammar,
		device:  device,
		logger:  orDiscard(logger),
	}, nil
}

// OpenLocal opens the device at path and address with opener (driver.Open
// if nil) and wraps it in a Local.
func OpenLocal(kind sensor.Kind, path string, address uint32, opener DeviceOpener, logger *slog.Logger) (*Local, error) {
	if opener == nil {
		opener = driver.Open
	}
	device, err := opener(path, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceInit, err)
	}
	l, err := NewLocal(kind, device, logger)
	if err != nil {
		device.Close()
		return nil, err
	}
	return l, nil
}

// Kind returns the sensor kind.
func (l *Local) Kind() sensor.Kind {
	return l.kind
}

// Evaluate dispatches line and executes a recognized command on the
// device. Unrecognized input returns command.NotRecognized and no error;
// device failures return ErrExecution.
func (l *Local) Evaluate(ctx context.Context, line string) (string, error) {
	outcome := l.grammar.Dispatch(line)
	if !outcome.Matched() {
		return command.NotRecognized, nil
	}
	reply, err := l.execute(ctx, outcome.Command)
	if err != nil {
		return "", err
	}
	return command.Format(reply), nil
}

func (l *Local) execute(ctx context.Context, cmd command.Command) (command.Reply, error) {
	ec, ok := cmd.(ezo.Command)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no device encoding", ErrExecution, cmd.Name())
	}

	l.logger.Debug("executing command",
		slog.String("command", ec.String()),
		slog.String("device_command", ec.DeviceCommand()))

	reply, err := ec.Execute(ctx, l.device)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	return reply, nil
}

// Close releases the device.
func (l *Local) Close() error {
	if c, ok := l.device.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
