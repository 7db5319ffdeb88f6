package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Envelopes are small CBOR maps with integer keys, encoded canonically so
// equal envelopes produce equal bytes.
var (
	envEncMode cbor.EncMode
	envDecMode cbor.DecMode
)

func init() {
	var err error

	envEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: envelope encoder: %v", err))
	}

	// Unknown keys are skipped. Nesting and map size are capped well above
	// what an envelope needs.
	envDecMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyQuiet,
		IndefLength:     cbor.IndefLengthAllowed,
		MaxNestedLevels: 16,
		MaxMapPairs:     64,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: envelope decoder: %v", err))
	}
}

// Marshal encodes v with the envelope encoding. It performs no validation.
func Marshal(v any) ([]byte, error) {
	return envEncMode.Marshal(v)
}

// Unmarshal decodes data with the envelope decoding.
func Unmarshal(data []byte, v any) error {
	return envDecMode.Unmarshal(data, v)
}

// EncodeRequest validates and encodes req.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes and validates a request. When the envelope decodes
// but is invalid, the request is returned with the error so the responder
// can echo its MessageID.
func DecodeRequest(data []byte) (*Request, error) {
	req := new(Request)
	if err := Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

// EncodeResponse encodes resp. Responses carry any status; the requester
// decides how to treat it.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(resp)
}

// DecodeResponse decodes a response envelope.
func DecodeResponse(data []byte) (*Response, error) {
	resp := new(Response)
	if err := Unmarshal(data, resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}
