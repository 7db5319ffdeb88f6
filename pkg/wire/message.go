package wire

import (
	"fmt"
	"strings"

	"github.com/benita-io/benita-go/pkg/sensor"
)

// CBOR map keys for message encoding.
const (
	KeyMessageID     = 1
	KeyKindOrStatus  = 2 // Kind (request) or Status (response)
	KeyCommandOrText = 3
)

// ReservedMessageID is never used for a request.
const ReservedMessageID uint32 = 0

// MaxCommandLength bounds the command text of a request.
const MaxCommandLength = 1024

// Request is a command sent to a responder.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32
//	  2: kind,         // uint8: 1=conductivity, 2=ph, 3=temperature
//	  3: command       // text, canonical command form
//	}
type Request struct {
	MessageID uint32      `cbor:"1,keyasint"`
	Kind      sensor.Kind `cbor:"2,keyasint"`
	Command   string      `cbor:"3,keyasint"`
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.MessageID == ReservedMessageID {
		return fmt.Errorf("messageId 0 is reserved")
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("invalid kind: %d", r.Kind)
	}
	if strings.TrimSpace(r.Command) == "" {
		return fmt.Errorf("empty command")
	}
	if len(r.Command) > MaxCommandLength {
		return fmt.Errorf("command too long: %d bytes", len(r.Command))
	}
	return nil
}

// Response is a responder's answer to a Request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32: matches request
//	  2: status,       // uint8: 0=ok, or error code
//	  3: text          // display text of the reply
//	}
type Response struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Status    Status `cbor:"2,keyasint"`
	Text      string `cbor:"3,keyasint,omitempty"`
}

// NewResponse creates a response to req.
func NewResponse(req *Request, status Status, text string) *Response {
	resp := &Response{Status: status, Text: text}
	if req != nil {
		resp.MessageID = req.MessageID
	}
	return resp
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}
