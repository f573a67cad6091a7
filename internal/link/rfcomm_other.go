//go:build !linux

package link

import (
	"context"
	"fmt"
)

func dialRFCOMM(context.Context, string, uint8) (Conn, error) {
	return nil, fmt.Errorf("%w: rfcomm requires linux", ErrUnsupportedNetwork)
}

func listenRFCOMM(string, uint8) (Listener, error) {
	return nil, fmt.Errorf("%w: rfcomm requires linux", ErrUnsupportedNetwork)
}
