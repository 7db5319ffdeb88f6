// Package wire defines the CBOR envelopes exchanged between requesters and
// responders.
//
// Envelopes are CBOR (RFC 8949) maps with integer keys, carried in
// length-prefixed frames by package transport.
//
// # Messages
//
//   - Request: requester to responder, one command in canonical text form
//   - Response: responder to requester, the reply text and a Status
//
// A responder echoes the request's MessageID in its response. MessageID 0
// is reserved and never sent.
package wire
