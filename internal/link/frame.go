package link

import (
	"errors"
	"time"

	"github.com/binsort-io/binsort/internal/protocol"
)

// FrameConn reads and writes whole JSON documents on a stream.
// It is not safe for concurrent use.
type FrameConn struct {
	conn    Conn
	buf     []byte
	scratch [protocol.MaxDocumentSize]byte
}

func NewFrameConn(c Conn) *FrameConn {
	return &FrameConn{conn: c}
}

// ReadDocument returns the next document. A zero timeout waits indefinitely.
// Input that cannot form a document yields a *protocol.ProtocolError and is discarded.
func (f *FrameConn) ReadDocument(timeout time.Duration) ([]byte, error) {
	for {
		doc, rest, err := protocol.SplitDocument(f.buf)
		switch {
		case err == nil:
			out := append([]byte(nil), doc...)
			f.buf = append(f.buf[:0], rest...)
			return out, nil
		case !errors.Is(err, protocol.ErrIncompleteDocument):
			f.Reset()
			return nil, &protocol.ProtocolError{Op: "read", Err: err}
		}

		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		if err := f.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}

		n, err := f.conn.Read(f.scratch[:])
		f.buf = append(f.buf, f.scratch[:n]...)
		if err != nil {
			if n > 0 {
				if _, _, serr := protocol.SplitDocument(f.buf); serr == nil {
					// A complete document arrived together with the error; hand it out first.
					continue
				}
			}
			return nil, err
		}
	}
}

// WriteDocument writes doc in full. A zero timeout waits indefinitely.
func (f *FrameConn) WriteDocument(doc []byte, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := f.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := f.conn.Write(doc)
	return err
}

// Reset drops any buffered partial input.
func (f *FrameConn) Reset() {
	f.buf = f.buf[:0]
}

func (f *FrameConn) Close() error {
	return f.conn.Close()
}

func (f *FrameConn) Peer() string {
	return f.conn.Peer()
}
