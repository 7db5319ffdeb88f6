package transport

import "errors"

// Socket errors.
var (
	// ErrInvalidState indicates a send or receive out of request/reply order.
	ErrInvalidState = errors.New("operation not valid in current socket state")

	// ErrConnectionClosed indicates the socket or its peer closed the connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrPeerGone indicates the requester of the pending request disconnected
	// before the reply could be delivered.
	ErrPeerGone = errors.New("peer disconnected before reply")
)
