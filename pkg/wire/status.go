package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusOK indicates the command was executed.
	StatusOK Status = 0

	// StatusNotRecognized indicates no command of the responder's grammar
	// matched the request text.
	StatusNotRecognized Status = 1

	// StatusExecutionFailed indicates the device transaction failed.
	StatusExecutionFailed Status = 2

	// StatusKindMismatch indicates the request was addressed to another
	// sensor kind.
	StatusKindMismatch Status = 3

	// StatusInvalidRequest indicates the request could not be decoded.
	StatusInvalidRequest Status = 4
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotRecognized:
		return "NOT_RECOGNIZED"
	case StatusExecutionFailed:
		return "EXECUTION_FAILED"
	case StatusKindMismatch:
		return "KIND_MISMATCH"
	case StatusInvalidRequest:
		return "INVALID_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusOK
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusOK
}
