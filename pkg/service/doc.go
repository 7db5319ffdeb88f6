// Package service ties grammars, devices and sockets together into the
// evaluators an operator talks to.
//
// # Requester
//
// A Requester dispatches each line against the grammar of its sensor
// kind. Recognized commands are forwarded in canonical form to a remote
// responder; the reply text is returned unchanged. Unrecognized input
// yields command.NotRecognized without touching the network.
//
//	req, err := service.NewRequester(ctx, sensor.KindPH, "tcp://127.0.0.1:5557", service.RequesterConfig{})
//	reply, err := req.Evaluate(ctx, "read")
//
// # Responder
//
// A Responder binds a reply socket, owns a device and serves forever:
//
//	AWAITING_REQUEST -> DISPATCHING -> REPLYING -> QUIESCENT -> AWAITING_REQUEST
//
// Every request gets exactly one reply. Unknown commands and device
// failures are answered with command.NotRecognized.
//
// # Local
//
// Local evaluates lines directly against an attached device. It backs the
// responder and the CLI's sensor mode.
//
// # Loops
//
// RunBatch evaluates a fixed list of lines and RunInteractive reads lines
// from a LineSource until a quit token, end of input or interrupt.
package service
