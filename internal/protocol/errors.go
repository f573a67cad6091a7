package protocol

import (
	"errors"
)

var (
	// ErrIncompleteDocument means the buffer holds the start of a document but not its end.
	ErrIncompleteDocument = errors.New("incomplete document")

	// ErrDocumentTooLarge means no complete document fits in MaxDocumentSize bytes.
	ErrDocumentTooLarge = errors.New("document exceeds size bound")

	ErrNoLabel    = errors.New("No label provided")    //nolint:staticcheck // wire text
	ErrNoSettings = errors.New("No settings provided") //nolint:staticcheck // wire text

	errMissingAction = errors.New("missing action")
	errUnknownStatus = errors.New("unknown status")
	errTrailingBytes = errors.New("trailing data after document")
)

// ProtocolError reports a message that could not be encoded, decoded or validated.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Op == "validate" {
		return e.Err.Error()
	}
	return "protocol: " + e.Op + ": " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocolError reports whether err is or wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
