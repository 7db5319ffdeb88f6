// Package transport provides request/reply sockets for benita.
//
// A responder binds a ReplySocket to an endpoint URL and any number of
// requesters connect to it with a RequestSocket. Endpoints are either
// TCP or local IPC sockets:
//
//	tcp://127.0.0.1:5557
//	tcp://*:5557          (bind on all interfaces)
//	ipc:///tmp/ph.sock
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│    TCP or Unix domain socket   │
//	└────────────────────────────────┘
//
// # Request/Reply Discipline
//
// A request socket must alternate Send and Receive, starting with Send.
// A reply socket must alternate Receive and Send. Out-of-order calls fail
// with ErrInvalidState and leave the socket unchanged.
//
// Receive on a request socket has no timeout. Cancelling its context
// aborts the wait and closes the socket.
package transport
