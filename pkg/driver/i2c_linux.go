//go:build linux

package driver

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave is the i2c-dev ioctl that selects the target address.
const i2cSlave = 0x0703

// I2C is an EZO circuit on a Linux i2c-dev bus.
type I2C struct {
	path    string
	address uint32

	mu     sync.Mutex
	fd     int
	closed bool
}

// OpenI2C opens path and binds the file descriptor to address.
func OpenI2C(path string, address uint32) (*I2C, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(fd, i2cSlave, int(address)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to select address 0x%02x on %s: %w", address, path, err)
	}
	return &I2C{path: path, address: address, fd: fd}, nil
}

// Transact writes the command, waits, and reads the answer.
func (d *I2C) Transact(ctx context.Context, req Request) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}

	if _, err := unix.Write(d.fd, []byte(req.Command)); err != nil {
		return "", fmt.Errorf("i2c write failed: %w", err)
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

	buf := make([]byte, MaxResponseSize+1)
	n, err := unix.Read(d.fd, buf)
	if err != nil {
		return "", fmt.Errorf("i2c read failed: %w", err)
	}
	return decodeI2CResponse(buf[:n])
}

// Close closes the bus file descriptor. It is safe to call more than once.
func (d *I2C) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return unix.Close(d.fd)
}

// String returns the bus path and address.
func (d *I2C) String() string {
	return fmt.Sprintf("%s@0x%02x", d.path, d.address)
}
