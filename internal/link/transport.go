package link

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/binsort-io/binsort/pkg/options"
)

// Conn is one established stream to a peer.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error

	// Peer describes the remote end.
	Peer() string
}

// Listener accepts incoming streams.
type Listener interface {
	Accept() (Conn, error)
	Close() error
	Addr() string
}

// Dialer opens a stream to a peer address.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// Transport opens connections on one network.
type Transport struct {
	// Network is options.NetworkRFCOMM or options.NetworkTCP.
	Network string

	// Channel is the RFCOMM channel; ignored for tcp.
	Channel uint8
}

var _ Dialer = Transport{}

// TransportFrom builds a Transport from link options.
func TransportFrom(o *options.LinkOptions) Transport {
	return Transport{Network: o.Network, Channel: o.Channel}
}

func (t Transport) Dial(ctx context.Context, address string) (Conn, error) {
	switch t.Network {
	case options.NetworkTCP:
		var d net.Dialer
		c, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, err
		}
		return netConn{c}, nil
	case options.NetworkRFCOMM:
		return dialRFCOMM(ctx, address, t.Channel)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, t.Network)
}

// Listen binds address. For rfcomm an empty address binds every adapter.
func (t Transport) Listen(address string) (Listener, error) {
	switch t.Network {
	case options.NetworkTCP:
		l, err := net.Listen("tcp", address)
		if err != nil {
			return nil, err
		}
		return netListener{l}, nil
	case options.NetworkRFCOMM:
		return listenRFCOMM(address, t.Channel)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, t.Network)
}

type netConn struct {
	net.Conn
}

func (c netConn) Peer() string { return c.RemoteAddr().String() }

type netListener struct {
	l net.Listener
}

func (l netListener) Accept() (Conn, error) {
	c, err := l.l.Accept()
	if err != nil {
		return nil, err
	}
	return netConn{c}, nil
}

func (l netListener) Close() error { return l.l.Close() }
func (l netListener) Addr() string { return l.l.Addr().String() }
