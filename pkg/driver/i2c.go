package driver

import (
	"bytes"
	"fmt"
)

// EZO I2C response codes, sent as the first byte of every read.
const (
	i2cCodeSuccess = 1
	i2cCodeSyntax  = 2
	i2cCodePending = 254
	i2cCodeNoData  = 255
)

// decodeI2CResponse strips the status byte and the NUL padding of an I2C read.
func decodeI2CResponse(b []byte) (string, error) {
	if len(b) == 0 {
		return "", ErrNoData
	}
	switch b[0] {
	case i2cCodeSuccess:
	case i2cCodeSyntax:
		return "", ErrSyntax
	case i2cCodePending:
		return "", ErrPending
	case i2cCodeNoData:
		return "", ErrNoData
	default:
		return "", fmt.Errorf("device: unknown response code %d", b[0])
	}

	payload := b[1:]
	if i := bytes.IndexByte(payload, 0); i >= 0 {
		payload = payload[:i]
	}
	return string(payload), nil
}
