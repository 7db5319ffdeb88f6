//go:build !linux

package driver

import "context"

// I2C is unavailable outside Linux.
type I2C struct{}

// OpenI2C always fails with ErrUnsupported.
func OpenI2C(path string, address uint32) (*I2C, error) {
	return nil, ErrUnsupported
}

// Transact always fails with ErrUnsupported.
func (d *I2C) Transact(ctx context.Context, req Request) (string, error) {
	return "", ErrUnsupported
}

// Close is a no-op.
func (d *I2C) Close() error {
	return nil
}
