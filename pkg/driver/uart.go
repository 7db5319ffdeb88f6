package driver

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// uartReadTimeout bounds how long a UART answer is collected.
const uartReadTimeout = 2 * time.Second

// UART is an EZO circuit in UART mode. Commands are terminated with a
// carriage return; answers are followed by a "*OK" or "*ER" response code
// when response codes are enabled on the circuit.
type UART struct {
	path string

	mu     sync.Mutex
	port   serial.Port
	closed bool
}

// OpenUART opens a serial port at baud 8N1.
func OpenUART(path string, baud int) (*UART, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
	}
	return &UART{path: path, port: port}, nil
}

// Transact writes the command, waits, and collects the answer line.
func (d *UART) Transact(ctx context.Context, req Request) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}

	// Drop unsolicited output such as continuous readings.
	if err := d.port.ResetInputBuffer(); err != nil {
		return "", fmt.Errorf("uart reset failed: %w", err)
	}
	if _, err := d.port.Write([]byte(req.Command + "\r")); err != nil {
		return "", fmt.Errorf("uart write failed: %w", err)
	}
	if req.NoReply {
		return "", nil
	}

	wait := req.Wait
	if wait == 0 {
		wait = DefaultWait
	}
	if err := sleepContext(ctx, wait); err != nil {
		return "", err
	}

	raw, err := d.readAnswer(ctx)
	if err != nil {
		return "", err
	}
	return parseUARTResponse(raw)
}

// readAnswer reads until a response code arrives or the read window closes.
func (d *UART) readAnswer(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 64)
	deadline := time.Now().Add(uartReadTimeout)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := d.port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("uart read failed: %w", err)
		}
		buf.Write(chunk[:n])

		s := buf.String()
		if strings.Contains(s, "*OK\r") || strings.Contains(s, "*ER\r") {
			break
		}
		if n == 0 && buf.Len() > 0 && strings.HasSuffix(s, "\r") {
			// Response codes disabled: a complete line followed by silence.
			break
		}
	}

	if buf.Len() == 0 {
		return "", ErrNoData
	}
	return buf.String(), nil
}

// Close closes the serial port. It is safe to call more than once.
func (d *UART) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.port.Close()
}

// String returns the port path.
func (d *UART) String() string {
	return d.path
}

// parseUARTResponse extracts the first data line from a UART answer.
// "*ER" maps to ErrSyntax; other response codes are skipped.
func parseUARTResponse(raw string) (string, error) {
	var data string
	found := false
	for _, line := range strings.Split(raw, "\r") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "*ER":
			return "", ErrSyntax
		case strings.HasPrefix(line, "*"):
			continue
		case !found:
			data = line
			found = true
		}
	}
	return data, nil
}
