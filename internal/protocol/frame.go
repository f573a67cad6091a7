package protocol

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"io"
)

// SplitDocument returns the first complete JSON document in buf and the bytes after it.
// It returns ErrIncompleteDocument while buf holds only a prefix of a document, and
// ErrDocumentTooLarge once that prefix has grown past MaxDocumentSize.
func SplitDocument(buf []byte) (doc, rest []byte, err error) {
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil, buf, ErrIncompleteDocument
	}

	dec := stdjson.NewDecoder(bytes.NewReader(buf))
	var raw stdjson.RawMessage
	switch err := dec.Decode(&raw); {
	case err == nil:
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		if len(buf) >= MaxDocumentSize {
			return nil, nil, ErrDocumentTooLarge
		}
		return nil, buf, ErrIncompleteDocument
	default:
		return nil, nil, err
	}

	end := int(dec.InputOffset())
	if end > MaxDocumentSize {
		return nil, nil, ErrDocumentTooLarge
	}
	return buf[:end], buf[end:], nil
}
