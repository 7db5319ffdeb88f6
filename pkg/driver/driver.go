// Package driver provides the hardware transports for EZO sensor circuits.
//
// A Device performs one ASCII command transaction: write the command, wait
// for the circuit's processing delay, then read the answer. Two physical
// transports are supported:
//   - I2C (Linux i2c-dev, selected by paths under /dev/i2c-)
//   - UART (any other serial device path)
//
// A Simulator answers like a real circuit and is selected with "sim:" paths.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
)

// Default transaction timing.
const (
	// DefaultWait is the processing delay of most EZO commands.
	DefaultWait = 300 * time.Millisecond

	// DefaultBaudRate is the factory UART speed of EZO circuits.
	DefaultBaudRate = 9600

	// MaxResponseSize is the largest answer an EZO circuit returns.
	MaxResponseSize = 40
)

// Device errors.
var (
	// ErrSyntax indicates the circuit rejected the command.
	ErrSyntax = errors.New("device: syntax error")

	// ErrPending indicates the circuit had not finished processing.
	ErrPending = errors.New("device: still processing")

	// ErrNoData indicates the circuit had nothing to send.
	ErrNoData = errors.New("device: no data")

	// ErrUnsupported indicates the transport is not available on this platform.
	ErrUnsupported = errors.New("device: transport not supported on this platform")

	// ErrClosed indicates the device has been closed.
	ErrClosed = errors.New("device: closed")
)

// Request is one command transaction.
type Request struct {
	// Command is the ASCII command without terminator, e.g. "Cal,mid,7.00".
	Command string

	// Wait is the processing delay between write and read.
	Wait time.Duration

	// NoReply skips the read, for commands such as Sleep.
	NoReply bool
}

// Device is an opened sensor circuit.
type Device interface {
	// Transact writes the request and returns the answer text.
	Transact(ctx context.Context, req Request) (string, error)

	// Close releases the underlying handle.
	Close() error
}

// MaxI2CAddress is the largest 7-bit bus address.
const MaxI2CAddress = 0x7f

// Open opens the device at path. For I2C paths address is the 7-bit bus
// address; for serial paths it is the baud rate (0 selects DefaultBaudRate).
// Paths of the form "sim:<kind>" open a Simulator.
func Open(path string, address uint32) (Device, error) {
	switch {
	case strings.HasPrefix(path, "sim:"):
		kind, err := sensor.ParseKind(strings.TrimPrefix(path, "sim:"))
		if err != nil {
			return nil, fmt.Errorf("invalid simulator path: %w", err)
		}
		return NewSimulator(kind), nil
	case strings.HasPrefix(path, "/dev/i2c"):
		if address > MaxI2CAddress {
			return nil, fmt.Errorf("i2c address 0x%x out of range (max 0x%02x)", address, MaxI2CAddress)
		}
		d, err := OpenI2C(path, address)
		if err != nil {
			return nil, err
		}
		return d, nil
	case path == "":
		return nil, fmt.Errorf("device path is required")
	default:
		baud := int(address)
		if baud == 0 {
			baud = DefaultBaudRate
		}
		d, err := OpenUART(path, baud)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
