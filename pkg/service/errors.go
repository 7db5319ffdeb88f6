package service

import "errors"

// Service errors.
var (
	// ErrTransportSetup indicates the socket could not be dialed or bound.
	ErrTransportSetup = errors.New("transport setup failed")

	// ErrDeviceInit indicates the sensor device could not be opened.
	ErrDeviceInit = errors.New("device initialization failed")

	// ErrTransport indicates a send or receive failure on an established socket.
	ErrTransport = errors.New("transport failure")

	// ErrEncode indicates a request could not be encoded; nothing was sent.
	ErrEncode = errors.New("request encoding failed")

	// ErrExecution indicates a recognized command failed on the device.
	ErrExecution = errors.New("command execution failed")

	// ErrRemote indicates the responder rejected the request.
	ErrRemote = errors.New("request rejected by responder")

	// ErrInterrupted is returned by a LineSource when the operator interrupts input.
	ErrInterrupted = errors.New("interrupted")
)
