package protocol

import (
	"bytes"
	"fmt"

	json "github.com/json-iterator/go"
)

// MaxDocumentSize bounds one encoded Command or Response.
const MaxDocumentSize = 1024

func EncodeCommand(c Command) ([]byte, error) {
	if c.Action == "" {
		return nil, &ProtocolError{Op: "encode command", Err: errMissingAction}
	}
	return encode("encode command", c)
}

func EncodeResponse(r Response) ([]byte, error) {
	if !r.Status.valid() {
		return nil, &ProtocolError{Op: "encode response", Err: fmt.Errorf("%w %q", errUnknownStatus, r.Status)}
	}
	return encode("encode response", r)
}

func encode(op string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &ProtocolError{Op: op, Err: err}
	}
	if len(b) > MaxDocumentSize {
		return nil, &ProtocolError{Op: op, Err: ErrDocumentTooLarge}
	}
	return b, nil
}

// DecodeCommand parses exactly one Command document. Field requirements of the
// action are not checked here; see Command.Validate.
func DecodeCommand(b []byte) (Command, error) {
	var c Command
	if err := decode("decode command", b, &c); err != nil {
		return Command{}, err
	}
	if c.Action == "" {
		return Command{}, &ProtocolError{Op: "decode command", Err: errMissingAction}
	}
	return c, nil
}

// DecodeResponse parses exactly one Response document.
func DecodeResponse(b []byte) (Response, error) {
	var r Response
	if err := decode("decode response", b, &r); err != nil {
		return Response{}, err
	}
	if !r.Status.valid() {
		return Response{}, &ProtocolError{Op: "decode response", Err: fmt.Errorf("%w %q", errUnknownStatus, r.Status)}
	}
	return r, nil
}

func decode(op string, b []byte, v any) error {
	doc, rest, err := SplitDocument(b)
	if err != nil {
		return &ProtocolError{Op: op, Err: err}
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		return &ProtocolError{Op: op, Err: errTrailingBytes}
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return &ProtocolError{Op: op, Err: err}
	}
	return nil
}
