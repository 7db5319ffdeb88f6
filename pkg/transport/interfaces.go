package transport

import "context"

// RequestSocket sends requests and receives their replies, strictly
// alternating. Implemented by ReqSocket.
type RequestSocket interface {
	// Send sends one request.
	Send(ctx context.Context, data []byte) error

	// Receive waits for the reply to the last request.
	Receive(ctx context.Context) ([]byte, error)

	// Close closes the socket.
	Close() error
}

// ReplySocket receives requests and sends one reply per request.
// Implemented by RepSocket.
type ReplySocket interface {
	// Receive waits for the next request.
	Receive(ctx context.Context) (Inbound, error)

	// Send replies to the last received request.
	Send(ctx context.Context, data []byte) error

	// Close closes the socket.
	Close() error
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads a length-prefixed frame.
	ReadFrame() ([]byte, error)

	// WriteFrame writes a length-prefixed frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ RequestSocket   = (*ReqSocket)(nil)
	_ ReplySocket     = (*RepSocket)(nil)
	_ FrameReadWriter = (*Framer)(nil)
)
